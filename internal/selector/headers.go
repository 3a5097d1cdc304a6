package selector

import (
	"path"
	"strings"
)

var headerExts = map[string]struct{}{
	".h":   {},
	".hh":  {},
	".hpp": {},
	".hxx": {},
}

// Headers matches C and C++ header files.
func Headers() Policy {
	return New("headers", func(key string) bool {
		_, ok := headerExts[strings.ToLower(path.Ext(key))]
		return ok
	})
}

// WithHeaders matches header files in addition to whatever p matches.
func WithHeaders(p Policy) Policy {
	return Any(Headers(), p)
}
