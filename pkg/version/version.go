// Package version implements the semantic-version arithmetic used to gate
// uploads and to resolve requirement queries.
package version

import (
	"github.com/Masterminds/semver/v3"

	"github.com/depotworks/depot/pkg/errdefs"
)

// Parse parses s as a strict SemVer 2.0.0 version.
func Parse(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "version %q does not follow semantic versioning: %v", s, err)
	}
	return v, nil
}

// IsValid reports whether s parses as a strict SemVer 2.0.0 version.
func IsValid(s string) bool {
	_, err := semver.StrictNewVersion(s)
	return err == nil
}

// Latest returns the greatest version of the set by SemVer order, or ""
// when the set is empty. Unparseable entries are an error.
func Latest(versions []string) (string, error) {
	var best *semver.Version
	var bestRaw string
	for _, raw := range versions {
		v, err := Parse(raw)
		if err != nil {
			return "", err
		}
		if best == nil || v.GreaterThan(best) {
			best, bestRaw = v, raw
		}
	}
	return bestRaw, nil
}

// StrictlyGreater reports whether candidate is strictly greater than every
// version in existing. When it is not, the current greatest version is
// returned so callers can name it in the conflict response.
func StrictlyGreater(candidate string, existing []string) (blocking string, err error) {
	c, err := Parse(candidate)
	if err != nil {
		return "", err
	}
	latest, err := Latest(existing)
	if err != nil {
		return "", err
	}
	if latest == "" {
		return "", nil
	}
	l, err := Parse(latest)
	if err != nil {
		return "", err
	}
	if c.GreaterThan(l) {
		return "", nil
	}
	return latest, nil
}

// MatchRequirement returns the greatest version in the set satisfying the
// requirement expression ("*", "^1.2", ">=1", ...), or "" when none does.
func MatchRequirement(versions []string, requirement string) (string, error) {
	constraint, err := semver.NewConstraint(requirement)
	if err != nil {
		return "", errdefs.Newf(errdefs.ErrInvalidParameter, "invalid version requirement %q: %v", requirement, err)
	}
	var best *semver.Version
	var bestRaw string
	for _, raw := range versions {
		v, err := Parse(raw)
		if err != nil {
			return "", err
		}
		if !constraint.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestRaw = v, raw
		}
	}
	return bestRaw, nil
}
