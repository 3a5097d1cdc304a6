package selector

import (
	"path"
	"strings"
)

const (
	windowsLibraryExt = ".dll"
	// windowsCacheManifest ships next to the plugins and is required at load
	// time.
	windowsCacheManifest = "cache.json"

	debugSegment = "debug"
	debugInfix   = "_debug"
)

// Windows matches dynamic libraries and the cache manifest, case-insensitively,
// and rejects anything from a debug build: keys with a "Debug" directory or a
// "_debug" infix in the file name.
func Windows() Policy {
	return New("windows-libraries", matchWindows)
}

func matchWindows(key string) bool {
	lower := strings.ToLower(key)
	base := path.Base(lower)

	if base != windowsCacheManifest && path.Ext(base) != windowsLibraryExt {
		return false
	}

	if strings.Contains(base, debugInfix) {
		return false
	}
	for _, segment := range strings.Split(path.Dir(lower), "/") {
		if segment == debugSegment {
			return false
		}
	}

	return true
}
