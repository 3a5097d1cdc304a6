package artifact

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultChecksumSuffix is appended to an artifact URL to locate its sidecar
// when no checksum URL is given.
const DefaultChecksumSuffix = ".sha256"

// Reference identifies one downloadable release archive.
type Reference struct {
	Name         string
	URL          string
	ChecksumURL  string
	SignatureURL string // detached OpenPGP signature (may be empty)
	OS           string // "linux", "windows", ...
	Arch         string // release naming, e.g. "x86_64"
	Variant      string // distribution variant, e.g. "ubuntu22"
	Version      string
}

// String returns the name, or the URL for unnamed references.
func (r Reference) String() string {
	if r.Name != "" {
		return r.Name
	}
	return r.URL
}

// Validate checks that the URLs are usable.
func (r Reference) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("artifact %s: URL is required", r)
	}
	if r.ChecksumURL == "" {
		return fmt.Errorf("artifact %s: checksum URL is required", r)
	}
	for _, raw := range []string{r.URL, r.ChecksumURL, r.SignatureURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("artifact %s: %w", r, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("artifact %s: unsupported URL scheme %q", r, u.Scheme)
		}
	}
	return nil
}

// Params fills the placeholders of a release URL template.
type Params struct {
	Name    string
	OS      string
	Arch    string
	Variant string
	Version string
	// Signed adds a ".asc" signature URL next to the artifact.
	Signed bool
}

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// NewReference builds a Reference from a URL template. The placeholders
// {version}, {os}, {arch} and {variant} are substituted from p; the checksum
// URL is the artifact URL plus DefaultChecksumSuffix.
//
// Example template:
//
//	https://host/releases/{version}/toolkit_{variant}_{version}_{arch}.tgz
func NewReference(template string, p Params) (Reference, error) {
	replacer := strings.NewReplacer(
		"{version}", p.Version,
		"{os}", p.OS,
		"{arch}", p.Arch,
		"{variant}", p.Variant,
	)
	u := replacer.Replace(template)

	if left := placeholderPattern.FindString(u); left != "" {
		return Reference{}, fmt.Errorf("unknown placeholder %s in template %q", left, template)
	}

	ref := Reference{
		Name:        p.Name,
		URL:         u,
		ChecksumURL: u + DefaultChecksumSuffix,
		OS:          p.OS,
		Arch:        p.Arch,
		Variant:     p.Variant,
		Version:     p.Version,
	}
	if p.Signed {
		ref.SignatureURL = u + ".asc"
	}

	if err := ref.Validate(); err != nil {
		return Reference{}, err
	}
	return ref, nil
}
