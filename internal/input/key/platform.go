package key

import "runtime"

// Platform decides what the "Mod" token means.
type Platform uint8

const (
	// PlatformOther maps Mod to Ctrl.
	PlatformOther Platform = iota
	// PlatformMac maps Mod to Meta.
	PlatformMac
)

// DetectPlatform returns the platform of the running process.
func DetectPlatform() Platform {
	if runtime.GOOS == "darwin" {
		return PlatformMac
	}
	return PlatformOther
}

// ParsePlatform maps a config value ("mac", "other", "auto") to a Platform.
func ParsePlatform(s string) Platform {
	switch s {
	case "mac", "macos", "darwin":
		return PlatformMac
	case "other", "linux", "windows":
		return PlatformOther
	default:
		return DetectPlatform()
	}
}

// Primary returns the modifier "Mod" stands for.
func (p Platform) Primary() Modifier {
	if p == PlatformMac {
		return ModMeta
	}
	return ModCtrl
}
