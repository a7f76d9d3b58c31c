package manifest

import (
	"fmt"
)

// ContentKind enumerates the kinds of package content the registry accepts.
type ContentKind string

const (
	KindVM        ContentKind = "vm"
	KindFeature   ContentKind = "feature"
	KindCondition ContentKind = "condition"
	KindInject    ContentKind = "inject"
	KindEvent     ContentKind = "event"
	KindMalware   ContentKind = "malware"
	KindExercise  ContentKind = "exercise"
	KindOther     ContentKind = "other"
)

// assetKinds are the content kinds that require a non-empty assets list.
var assetKinds = []ContentKind{
	KindFeature, KindCondition, KindInject, KindEvent, KindMalware, KindExercise,
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown content kinds
// are rejected.
func (k *ContentKind) UnmarshalText(text []byte) error {
	kind := ContentKind(text)
	switch kind {
	case KindVM, KindFeature, KindCondition, KindInject, KindEvent, KindMalware, KindExercise, KindOther:
		*k = kind
		return nil
	}
	return fmt.Errorf("unknown content type %q", string(text))
}

// RequiresAssets reports whether packages of this kind must declare assets.
func (k ContentKind) RequiresAssets() bool {
	for _, kind := range assetKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// OperatingSystem enumerates the guest operating systems a virtual-machine
// package may declare. Values outside the enumeration decode to OSUnknown.
type OperatingSystem string

const (
	OSUnknown           OperatingSystem = "Unknown"
	OSDebian            OperatingSystem = "debian"
	OSUbuntu            OperatingSystem = "ubuntu"
	OSKali              OperatingSystem = "kali"
	OSWindows10         OperatingSystem = "windows-10"
	OSWindowsServer2019 OperatingSystem = "windows-server-2019"
	OSWindowsServer2022 OperatingSystem = "windows-server-2022"
)

// UnmarshalText implements encoding.TextUnmarshaler, tolerating unknown
// values instead of failing the decode.
func (o *OperatingSystem) UnmarshalText(text []byte) error {
	value := OperatingSystem(text)
	switch value {
	case OSDebian, OSUbuntu, OSKali, OSWindows10, OSWindowsServer2019, OSWindowsServer2022:
		*o = value
	default:
		*o = OSUnknown
	}
	return nil
}

// Architecture enumerates the machine architectures a virtual-machine
// package may declare. Values outside the enumeration decode to ArchUnknown.
type Architecture string

const (
	ArchUnknown Architecture = "Unknown"
	ArchAMD64   Architecture = "amd64"
	ArchARM64   Architecture = "arm64"
	ArchI386    Architecture = "i386"
)

// UnmarshalText implements encoding.TextUnmarshaler, tolerating unknown
// values instead of failing the decode.
func (a *Architecture) UnmarshalText(text []byte) error {
	value := Architecture(text)
	switch value {
	case ArchAMD64, ArchARM64, ArchI386:
		*a = value
	default:
		*a = ArchUnknown
	}
	return nil
}
