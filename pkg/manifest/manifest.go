// Package manifest defines the per-package declarative manifest embedded in
// every upload, its TOML decoding and its cross-field validation rules.
package manifest

import (
	"os"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/depotworks/depot/pkg/errdefs"
)

// Filename is the well-known name of the manifest file at the top level of
// a package directory.
const Filename = "package.toml"

var nameRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Manifest is the client-supplied declaration of a package. The content
// block selects exactly one content kind; the matching detail block, when
// present, carries kind-specific metadata.
type Manifest struct {
	Package Package  `toml:"package"`
	Content Content  `toml:"content"`
	Preview *Preview `toml:"preview,omitempty"`

	VirtualMachine *VirtualMachine `toml:"virtual-machine,omitempty"`
	Feature        *Feature        `toml:"feature,omitempty"`
	Condition      *Condition      `toml:"condition,omitempty"`
	Inject         *Inject         `toml:"inject,omitempty"`
	Event          *Event          `toml:"event,omitempty"`
	Malware        *Malware        `toml:"malware,omitempty"`
	Exercise       *Exercise       `toml:"exercise,omitempty"`
}

// Package is the body shared by all content kinds.
type Package struct {
	Name        string   `toml:"name"`
	Description string   `toml:"description,omitempty"`
	Version     string   `toml:"version"`
	Authors     []string `toml:"authors,omitempty"`
	License     string   `toml:"license"`
	Readme      string   `toml:"readme,omitempty"`

	// Assets lists files deployed with the package. Each row is
	// [relative-source-path, absolute-destination-path] with an optional
	// third element holding an octal permissions triplet.
	Assets [][]string `toml:"assets,omitempty"`
}

// Content selects the content kind of the package.
type Content struct {
	Kind ContentKind `toml:"type"`
}

// Preview lists media shown by package browsers.
type Preview struct {
	Pictures []string `toml:"pictures,omitempty"`
	Videos   []string `toml:"videos,omitempty"`
}

// VirtualMachine is the detail block for KindVM.
type VirtualMachine struct {
	OperatingSystem OperatingSystem `toml:"operating_system,omitempty"`
	Architecture    Architecture    `toml:"architecture,omitempty"`
	DefaultAccount  string          `toml:"default_account,omitempty"`
	FilePath        string          `toml:"file_path,omitempty"`
}

// Feature is the detail block for KindFeature.
type Feature struct {
	FeatureType string `toml:"type,omitempty"`
	Action      string `toml:"action,omitempty"`
	Restarts    bool   `toml:"restarts,omitempty"`
}

// Condition is the detail block for KindCondition.
type Condition struct {
	Action   string `toml:"action,omitempty"`
	Interval uint32 `toml:"interval,omitempty"`
}

// Inject is the detail block for KindInject.
type Inject struct {
	Action   string `toml:"action,omitempty"`
	Restarts bool   `toml:"restarts,omitempty"`
}

// Event is the detail block for KindEvent.
type Event struct {
	Action   string `toml:"action,omitempty"`
	FilePath string `toml:"file_path,omitempty"`
}

// Malware is the detail block for KindMalware.
type Malware struct {
	Action   string `toml:"action,omitempty"`
	Restarts bool   `toml:"restarts,omitempty"`
}

// Exercise is the detail block for KindExercise.
type Exercise struct {
	FilePath string `toml:"file_path,omitempty"`
}

// Parse decodes data as a TOML manifest and validates it.
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, errdefs.Newf(errdefs.ErrInvalidParameter, "decode manifest: %v", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.NewE(errdefs.ErrInvalidParameter, err)
	}
	return Parse(data)
}

// ValidateName reports whether name is a legal canonical package name.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return errdefs.Newf(errdefs.ErrInvalidParameter,
			"package name %q is invalid, only alphanumeric characters, dashes and underscores are allowed", name)
	}
	return nil
}
