// internal/semverx/suggest.go
//
// Version suggestion engine. Given a current version, four candidate next
// versions are computed independently; any increment that cannot be computed
// leaves its field nil while the call as a whole still succeeds. An invalid
// base version therefore yields a successful envelope with four nil fields.

package semverx

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/relkit/relkit/internal/result"
)

// Suggestion holds the four candidate next versions. A nil field means that
// increment could not be computed from the base version.
type Suggestion struct {
	Patch      *string `json:"patch"`
	Minor      *string `json:"minor"`
	Major      *string `json:"major"`
	Prerelease *string `json:"prerelease"`
}

// Engine computes version suggestions.
type Engine struct {
	log *zap.Logger
}

// NewEngine builds a suggestion engine.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Suggest computes patch, minor, major and prerelease candidates for the
// given current version. preID names the pre-release identifier; empty means
// a bare numeric pre-release suffix.
func (e *Engine) Suggest(current, preID string) result.Result[Suggestion] {
	base, err := semver.NewVersion(current)
	if err != nil {
		e.log.Debug("unparseable base version", zap.String("version", current), zap.Error(err))
		return result.Ok(Suggestion{}, "no suggestions for invalid version %q", current)
	}
	s := Suggestion{
		Patch: str(base.IncPatch().String()),
		Minor: str(base.IncMinor().String()),
		Major: str(base.IncMajor().String()),
	}
	if pre, err := nextPrerelease(base, preID); err == nil {
		s.Prerelease = str(pre)
	} else {
		e.log.Debug("prerelease increment failed", zap.String("version", current), zap.Error(err))
	}
	return result.Ok(s, "suggestions for %s", current)
}

// nextPrerelease follows the npm convention: when the base already carries a
// pre-release under the same identifier its numeric suffix is bumped,
// otherwise the next patch version gains a fresh `{preID}.0` suffix.
func nextPrerelease(base *semver.Version, preID string) (string, error) {
	if pre := base.Prerelease(); pre != "" && prereleaseMatches(pre, preID) {
		next, err := base.SetPrerelease(bumpNumericSuffix(pre))
		if err != nil {
			return "", err
		}
		return next.String(), nil
	}
	suffix := "0"
	if preID != "" {
		suffix = preID + ".0"
	}
	next, err := base.IncPatch().SetPrerelease(suffix)
	if err != nil {
		return "", err
	}
	return next.String(), nil
}

func prereleaseMatches(pre, preID string) bool {
	if preID == "" {
		return true
	}
	return pre == preID || strings.HasPrefix(pre, preID+".")
}

// bumpNumericSuffix increments the trailing numeric identifier, appending a
// zero when there is none: beta.1 -> beta.2, beta -> beta.0, 0 -> 1.
func bumpNumericSuffix(pre string) string {
	parts := strings.Split(pre, ".")
	last := parts[len(parts)-1]
	if n, err := strconv.Atoi(last); err == nil {
		parts[len(parts)-1] = strconv.Itoa(n + 1)
		return strings.Join(parts, ".")
	}
	return pre + ".0"
}

func str(s string) *string {
	return &s
}
