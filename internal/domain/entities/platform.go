package entities

import "strings"

// PlatformFamily groups target platforms by how canonical-name metadata is
// handled: which patch tool applies, or whether the concept applies at all.
type PlatformFamily int

// Platform families.
const (
	FamilyUnknown PlatformFamily = iota
	FamilyLinux
	FamilyBSD
	FamilyDarwin
	FamilyWindows
)

// String returns the family name.
func (f PlatformFamily) String() string {
	switch f {
	case FamilyLinux:
		return "linux"
	case FamilyBSD:
		return "bsd"
	case FamilyDarwin:
		return "darwin"
	case FamilyWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// Platform is a build target, e.g. "linux-x86_64" or "darwin-arm64".
// Supplied by the caller per artifact; immutable.
type Platform struct {
	OS   string
	Arch string
}

// ParsePlatform parses a platform label of the form "os-arch". A label with
// no arch component yields an empty Arch.
func ParsePlatform(label string) Platform {
	osPart, arch, _ := strings.Cut(label, "-")
	return Platform{OS: strings.ToLower(osPart), Arch: arch}
}

// String returns the platform label.
func (p Platform) String() string {
	if p.Arch == "" {
		return p.OS
	}
	return p.OS + "-" + p.Arch
}

// Family maps the platform's OS to its platform family.
func (p Platform) Family() PlatformFamily {
	switch p.OS {
	case "linux", "android":
		return FamilyLinux
	case "freebsd", "openbsd", "netbsd", "dragonfly":
		return FamilyBSD
	case "darwin", "macos", "ios":
		return FamilyDarwin
	case "windows":
		return FamilyWindows
	default:
		return FamilyUnknown
	}
}
