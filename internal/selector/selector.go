// Package selector provides the membership policies that decide which archive
// entries are real deliverables for a target platform.
//
// A Policy is a named predicate over entry keys. Policies hold only data
// computed at construction, so a single value can be shared by any number of
// concurrent extractions.
package selector

import (
	"fmt"
	"path"
	"strings"
)

// Policy is a named predicate over slash separated entry keys.
type Policy struct {
	name  string
	match func(key string) bool
}

// New returns a policy backed by an arbitrary match function.
func New(name string, match func(key string) bool) Policy {
	return Policy{name: name, match: match}
}

// Name returns the policy's descriptive name.
func (p Policy) Name() string {
	return p.name
}

// Matches reports whether key belongs to the extraction set. The zero Policy
// matches nothing.
func (p Policy) Matches(key string) bool {
	if p.match == nil {
		return false
	}
	return p.match(key)
}

// String implements fmt.Stringer.
func (p Policy) String() string {
	return p.name
}

// All matches every entry.
func All() Policy {
	return New("all", func(string) bool { return true })
}

// Basenames matches entries whose final path element is one of names,
// compared exactly.
func Basenames(names ...string) Policy {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return New("basenames", func(key string) bool {
		_, ok := set[path.Base(key)]
		return ok
	})
}

// Any matches when at least one of the given policies matches.
func Any(policies ...Policy) Policy {
	names := make([]string, 0, len(policies))
	for _, p := range policies {
		names = append(names, p.name)
	}
	return New(strings.Join(names, "+"), func(key string) bool {
		for _, p := range policies {
			if p.Matches(key) {
				return true
			}
		}
		return false
	})
}

// Kind names a built-in platform policy.
type Kind string

const (
	// KindWindows selects Windows dynamic libraries.
	KindWindows Kind = "windows"
	// KindLinux selects the versioned Linux shared object allow-list.
	KindLinux Kind = "linux"
	// KindAll selects every entry.
	KindAll Kind = "all"
)

// ForKind builds the built-in policy for kind. version is only used by
// KindLinux. When headers is set, header files are selected as well.
func ForKind(kind Kind, version string, headers bool) (Policy, error) {
	var p Policy

	switch kind {
	case KindWindows:
		p = Windows()
	case KindLinux:
		linux, err := Linux(version)
		if err != nil {
			return Policy{}, err
		}
		p = linux.Policy
	case KindAll:
		p = All()
	default:
		return Policy{}, fmt.Errorf("unknown policy: %q", kind)
	}

	if headers {
		p = WithHeaders(p)
	}
	return p, nil
}
