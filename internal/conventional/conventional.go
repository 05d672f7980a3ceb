// internal/conventional/conventional.go
//
// Thin wrapper around the conventional-commit grammar. Both the commit filter
// (scope matching) and the notes generator (type grouping, prefix stripping)
// parse subjects through here.

package conventional

import (
	cc "github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// Message is a parsed `type(scope): description` subject line.
type Message struct {
	Type        string
	Scope       string
	Description string
}

// Parser parses commit subjects against the conventional grammar.
type Parser struct {
	machine cc.Machine
}

// NewParser builds a parser accepting the standard conventional types.
func NewParser() *Parser {
	return &Parser{machine: parser.NewMachine(cc.WithTypes(cc.TypesConventional))}
}

// Parse returns the structured subject and whether it followed the grammar.
func (p *Parser) Parse(subject string) (Message, bool) {
	parsed, err := p.machine.Parse([]byte(subject))
	if err != nil || parsed == nil {
		return Message{}, false
	}
	commit, ok := parsed.(*cc.ConventionalCommit)
	if !ok || !commit.Ok() {
		return Message{}, false
	}
	msg := Message{Type: commit.Type, Description: commit.Description}
	if commit.Scope != nil {
		msg.Scope = *commit.Scope
	}
	return msg, true
}
