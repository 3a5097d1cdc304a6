package selector

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// linuxLibraries are matched by exact basename regardless of version.
var linuxLibraries = []string{
	"libopenvino_intel_cpu_plugin.so",
	"libopenvino_intel_gpu_plugin.so",
	"libopenvino_intel_npu_plugin.so",
	"libopenvino_auto_plugin.so",
	"libopenvino_auto_batch_plugin.so",
	"libopenvino_hetero_plugin.so",
	"libtbb.so.12",
	"plugins.xml",
	"cache.json",
}

// linuxVersionedLibraries carry the release numeral as their ABI suffix.
var linuxVersionedLibraries = []string{
	"openvino",
	"openvino_c",
	"openvino_ir_frontend",
}

// LinuxPolicy is the Linux shared object allow-list for one release version.
type LinuxPolicy struct {
	Policy

	version   semver.Version
	versioned []string
}

// Linux builds the allow-list policy for a release version such as
// "2024.3.1". Versioned libraries are named lib<name>.so.<MM><m><p>; for
// 2024.3.1 that is libopenvino.so.2431.
func Linux(version string) (LinuxPolicy, error) {
	// Build numbers ("2024.3.0.16041") are not part of the ABI numeral.
	if parts := strings.SplitN(version, ".", 4); len(parts) == 4 {
		version = strings.Join(parts[:3], ".")
	}

	v, err := semver.ParseTolerant(version)
	if err != nil {
		return LinuxPolicy{}, fmt.Errorf("parse version %q: %w", version, err)
	}

	suffix := VersionSuffix(v)
	versioned := make([]string, 0, len(linuxVersionedLibraries))
	for _, name := range linuxVersionedLibraries {
		versioned = append(versioned, fmt.Sprintf("lib%s.so.%s", name, suffix))
	}

	allowed := make(map[string]struct{}, len(linuxLibraries)+len(versioned))
	for _, name := range linuxLibraries {
		allowed[name] = struct{}{}
	}
	for _, name := range versioned {
		allowed[name] = struct{}{}
	}

	p := New("linux-libraries-"+v.String(), func(key string) bool {
		_, ok := allowed[path.Base(key)]
		return ok
	})

	return LinuxPolicy{Policy: p, version: v, versioned: versioned}, nil
}

// VersionedNames returns the version-suffixed library basenames.
func (p LinuxPolicy) VersionedNames() []string {
	out := make([]string, len(p.versioned))
	copy(out, p.versioned)
	return out
}

// Version returns the parsed release version.
func (p LinuxPolicy) Version() semver.Version {
	return p.version
}

// VersionSuffix derives the ABI numeral of a release: the last two digits of
// the major version followed by minor and patch, without padding or dots.
func VersionSuffix(v semver.Version) string {
	major := strconv.FormatUint(v.Major, 10)
	if len(major) > 2 {
		major = major[len(major)-2:]
	}
	return major + strconv.FormatUint(v.Minor, 10) + strconv.FormatUint(v.Patch, 10)
}
