// Package platform detects the host platform and maps it onto release
// naming: the release architecture ("x86_64", "arm64") and the distribution
// variant ("ubuntu22", "rhel8") that native toolkit archives are built for.
//
// The detected information is also injected into manifests as a read-only
// Lua table, so a manifest can pick artifacts per platform. Distribution
// details come from gopsutil; when they cannot be read the OS and
// architecture are still reported.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS          string // "linux", "darwin", "windows"
	Arch        string // "amd64", "arm64" (normalized)
	ReleaseArch string // release archive naming, e.g. "x86_64"
	Platform    string // distro ID (Linux only, e.g., "ubuntu")
	Family      string // canonical family (e.g., "debian", "rhel")
	Version     string // distro version (Linux only, e.g., "22.04")
	Variant     string // release variant (Linux only, e.g., "ubuntu22"); empty if none fits
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsAMD64 returns true if the architecture is amd64.
func (i *Info) IsAMD64() bool {
	return i.Arch == "amd64"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// IsDebianFamily returns true if the Linux distribution is Debian-based.
func (i *Info) IsDebianFamily() bool {
	return i.OS == "linux" && i.Family == FamilyDebian
}

// IsRHELFamily returns true if the Linux distribution is RHEL-based.
func (i *Info) IsRHELFamily() bool {
	return i.OS == "linux" && i.Family == FamilyRHEL
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. Useful when the target platform is not
// the host, such as when preparing artifacts for another machine.
type StaticDetector struct {
	Info *Info
}

// Detect returns the fixed Info.
func (d StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Info, nil
}
