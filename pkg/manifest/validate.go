package manifest

import (
	"path/filepath"
	"regexp"

	"github.com/depotworks/depot/pkg/errdefs"
	"github.com/depotworks/depot/pkg/version"
)

var permissionsRegexp = regexp.MustCompile(`^[0-7]{3,4}$`)

// Validate enforces the cross-field invariants of the manifest: a legal
// name, a strict SemVer version, a detail block matching the selected
// content kind, and a non-empty assets list for the kinds that deploy files.
func (m *Manifest) Validate() error {
	if err := ValidateName(m.Package.Name); err != nil {
		return err
	}
	if _, err := version.Parse(m.Package.Version); err != nil {
		return err
	}
	if m.Content.Kind == "" {
		return errdefs.Newf(errdefs.ErrInvalidParameter, "missing content type")
	}
	if err := m.validateDetails(); err != nil {
		return err
	}
	if m.Content.Kind.RequiresAssets() && len(m.Package.Assets) == 0 {
		return errdefs.Newf(errdefs.ErrInvalidParameter,
			"Assets are required for %s packages", m.Content.Kind)
	}
	return m.validateAssets()
}

// validateDetails checks that every populated detail block belongs to the
// selected content kind.
func (m *Manifest) validateDetails() error {
	details := []struct {
		kind      ContentKind
		populated bool
	}{
		{KindVM, m.VirtualMachine != nil},
		{KindFeature, m.Feature != nil},
		{KindCondition, m.Condition != nil},
		{KindInject, m.Inject != nil},
		{KindEvent, m.Event != nil},
		{KindMalware, m.Malware != nil},
		{KindExercise, m.Exercise != nil},
	}
	for _, d := range details {
		if d.populated && d.kind != m.Content.Kind {
			return errdefs.Newf(errdefs.ErrInvalidParameter,
				"content type is %s but a %s block is declared", m.Content.Kind, d.kind)
		}
	}
	return nil
}

// validateAssets checks every asset row. A row must have a relative source
// path, an absolute destination path and optionally an octal permissions
// triplet.
func (m *Manifest) validateAssets() error {
	for i, asset := range m.Package.Assets {
		if len(asset) < 2 {
			return errdefs.Newf(errdefs.ErrInvalidParameter,
				"asset at index %d must have at least a source and a destination path", i)
		}
		if len(asset) > 3 {
			return errdefs.Newf(errdefs.ErrInvalidParameter,
				"asset at index %d has %d elements, at most 3 are allowed", i, len(asset))
		}
		if src := asset[0]; src == "" || filepath.IsAbs(src) {
			return errdefs.Newf(errdefs.ErrInvalidParameter,
				"asset at index %d: source %q must be a relative path", i, src)
		}
		if dst := asset[1]; len(dst) == 0 || dst[0] != '/' {
			return errdefs.Newf(errdefs.ErrInvalidParameter,
				"asset at index %d: destination %q must be an absolute path", i, asset[1])
		}
		if len(asset) == 3 && !permissionsRegexp.MatchString(asset[2]) {
			return errdefs.Newf(errdefs.ErrInvalidParameter,
				"asset at index %d: permissions %q must be an octal triplet", i, asset[2])
		}
	}
	return nil
}
