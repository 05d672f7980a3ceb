// internal/tagging/format.go
//
// Placeholder micro-format for tag templates. Required placeholders are
// checked before substitution so a template that silently drops the version
// is rejected up front instead of producing unparseable tags.

package tagging

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	placeholderName    = "${name}"
	placeholderVersion = "${version}"
)

// ErrBadFormat reports a tag template missing a required placeholder.
var ErrBadFormat = errors.New("tagging: invalid tag format")

// Format is a validated tag template.
type Format struct {
	template    string
	requireName bool
}

// NewFormat validates the template: ${version} is always required, ${name}
// only when the active strategy tags packages individually.
func NewFormat(template string, requireName bool) (Format, error) {
	if !strings.Contains(template, placeholderVersion) {
		return Format{}, fmt.Errorf("%w: %q must contain %s", ErrBadFormat, template, placeholderVersion)
	}
	if requireName && !strings.Contains(template, placeholderName) {
		return Format{}, fmt.Errorf("%w: %q must contain %s under the independent strategy", ErrBadFormat, template, placeholderName)
	}
	return Format{template: template, requireName: requireName}, nil
}

// Render substitutes the placeholders.
func (f Format) Render(name, version string) string {
	tag := strings.ReplaceAll(f.template, placeholderVersion, version)
	return strings.ReplaceAll(tag, placeholderName, name)
}

// Parsed is the package reference recovered from a tag name.
type Parsed struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ParseTagName inverts a template: it recovers the name and version embedded
// in a rendered tag and checks the version is valid semver.
func ParseTagName(template, tag string) (Parsed, error) {
	pattern := regexp.QuoteMeta(template)
	pattern = strings.ReplaceAll(pattern, regexp.QuoteMeta(placeholderName), "(?P<name>.+)")
	pattern = strings.ReplaceAll(pattern, regexp.QuoteMeta(placeholderVersion), "(?P<version>.+)")
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: %q: %v", ErrBadFormat, template, err)
	}
	match := re.FindStringSubmatch(tag)
	if match == nil {
		return Parsed{}, fmt.Errorf("tagging: tag %q does not match format %q", tag, template)
	}
	var parsed Parsed
	if i := re.SubexpIndex("name"); i >= 0 {
		parsed.Name = match[i]
	}
	if i := re.SubexpIndex("version"); i >= 0 {
		parsed.Version = match[i]
	}
	if _, err := semver.NewVersion(parsed.Version); err != nil {
		return Parsed{}, fmt.Errorf("tagging: tag %q carries invalid version %q: %w", tag, parsed.Version, err)
	}
	return parsed, nil
}
