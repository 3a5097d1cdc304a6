package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":    FamilyDebian,
	"ubuntu":    FamilyDebian,
	"rhel":      FamilyRHEL,
	"centos":    FamilyRHEL,
	"rocky":     FamilyRHEL,
	"almalinux": FamilyRHEL,
	"fedora":    FamilyFedora,
	"suse":      FamilySUSE,
	"opensuse":  FamilySUSE,
	"arch":      FamilyArch,
	"manjaro":   FamilyArch,
	"alpine":    FamilyAlpine,
}

// normalizeArch converts GOARCH values to normalized architecture names.
func normalizeArch(arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", arch)
	}
}

// ReleaseArch maps a normalized or raw architecture to release archive
// naming.
func ReleaseArch(arch string) (string, error) {
	normalized, err := normalizeArch(arch)
	if err != nil {
		return "", err
	}
	if normalized == "amd64" {
		return "x86_64", nil
	}
	return normalized, nil
}

// ReleaseVariant maps a distribution ID and version to the variant name used
// in release archive names. Releases are built for Ubuntu and Debian per
// major version and for RHEL compatible systems per major version. It returns
// "" when no variant fits.
func ReleaseVariant(id, version string) string {
	major, _, _ := strings.Cut(version, ".")
	if major == "" {
		return ""
	}

	switch normalizePlatform(id) {
	case "ubuntu":
		return "ubuntu" + major
	case "debian":
		return "debian" + major
	case "rhel", "centos", "rocky", "almalinux":
		return "rhel" + major
	default:
		return ""
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := normalizePlatform(family)
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
