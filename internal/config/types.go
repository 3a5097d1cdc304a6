package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Manifest is a parsed nativefetch manifest.
type Manifest struct {
	// CacheDir holds downloads and lock files (supports ~).
	CacheDir string `json:"cache_dir,omitempty"`

	// Retries per HTTP request; zero means the fetcher default.
	Retries int `json:"retries,omitempty"`

	// Concurrency bounds how many artifacts are processed at once.
	Concurrency int `json:"concurrency,omitempty"`

	// Keyring is an OpenPGP public keyring used to check signatures.
	Keyring string `json:"keyring,omitempty"`

	// LockDestinations serializes runs that share a destination.
	LockDestinations bool `json:"lock_destinations,omitempty"`

	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Artifact is one release archive and how to extract it.
type Artifact struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	ChecksumURL  string `json:"checksum_url,omitempty"`
	SignatureURL string `json:"signature_url,omitempty"`
	OS           string `json:"os,omitempty"`
	Arch         string `json:"arch,omitempty"`
	Variant      string `json:"variant,omitempty"`
	Version      string `json:"version,omitempty"`

	// Policy is one of PolicyLinux, PolicyWindows or PolicyAll.
	Policy string `json:"policy,omitempty"`
	// Headers adds header files to the policy's selection.
	Headers bool   `json:"headers,omitempty"`
	Flatten bool   `json:"flatten,omitempty"`
	Dest    string `json:"dest"`
}

// applyDefaults fills derived fields.
func (a *Artifact) applyDefaults() {
	if a.ChecksumURL == "" && a.URL != "" {
		a.ChecksumURL = a.URL + ".sha256"
	}
	if a.Policy == "" {
		a.Policy = PolicyAll
	}
}

// Validate performs validation on a Manifest.
func (m *Manifest) Validate() error {
	if len(m.Artifacts) > MaxArtifactCount {
		return &ValidationError{
			Field:   "artifacts",
			Message: fmt.Sprintf("too many artifacts (%d), maximum is %d", len(m.Artifacts), MaxArtifactCount),
		}
	}

	if m.Retries < 0 || m.Retries > maxRetries {
		return &ValidationError{Field: "retries", Message: fmt.Sprintf("must be between 0 and %d", maxRetries)}
	}
	if m.Concurrency < 0 || m.Concurrency > maxConcurrency {
		return &ValidationError{Field: "concurrency", Message: fmt.Sprintf("must be between 0 and %d", maxConcurrency)}
	}

	names := make(map[string]struct{}, len(m.Artifacts))
	dests := make(map[string]string, len(m.Artifacts))

	for i, a := range m.Artifacts {
		field := fmt.Sprintf("artifacts[%d]", i+1)

		if err := validateName(a.Name); err != nil {
			return &ValidationError{Field: field + ".name", Message: err.Error()}
		}
		if _, dup := names[a.Name]; dup {
			return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate artifact name %q", a.Name)}
		}
		names[a.Name] = struct{}{}

		for _, u := range []struct{ name, value string }{
			{"url", a.URL},
			{"checksum_url", a.ChecksumURL},
			{"signature_url", a.SignatureURL},
		} {
			if u.value == "" && u.name == "signature_url" {
				continue
			}
			if err := validateURL(u.value); err != nil {
				return &ValidationError{Field: field + "." + u.name, Message: err.Error()}
			}
		}

		switch a.Policy {
		case PolicyLinux:
			if a.Version == "" {
				return &ValidationError{Field: field + ".version", Message: "required by the linux policy"}
			}
		case PolicyWindows, PolicyAll:
		default:
			return &ValidationError{
				Field:   field + ".policy",
				Message: fmt.Sprintf("unknown policy %q (expected linux, windows or all)", a.Policy),
			}
		}

		if err := validateDest(a.Dest); err != nil {
			return &ValidationError{Field: field + ".dest", Message: err.Error()}
		}
		clean := filepath.Clean(a.Dest)
		if other, dup := dests[clean]; dup {
			return &ValidationError{
				Field:   field + ".dest",
				Message: fmt.Sprintf("destination %q is also used by %q", a.Dest, other),
			}
		}
		dests[clean] = a.Name
	}

	return nil
}

// Artifact returns the artifact with the given name.
func (m *Manifest) Artifact(name string) (Artifact, bool) {
	for _, a := range m.Artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return Artifact{}, false
}

// ApplyEnv applies environment overrides.
func (m *Manifest) ApplyEnv() {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		m.CacheDir = dir
	}
}

// ResolvePaths expands ~ and makes relative paths absolute against baseDir,
// normally the directory holding the manifest. An empty cache_dir becomes
// DefaultCacheDir.
func (m *Manifest) ResolvePaths(baseDir string) error {
	if m.CacheDir == "" {
		dir, err := DefaultCacheDir()
		if err != nil {
			return err
		}
		m.CacheDir = dir
	}

	var err error
	if m.CacheDir, err = resolvePath(baseDir, m.CacheDir); err != nil {
		return err
	}
	if m.Keyring != "" {
		if m.Keyring, err = resolvePath(baseDir, m.Keyring); err != nil {
			return err
		}
	}
	for i := range m.Artifacts {
		if m.Artifacts[i].Dest, err = resolvePath(baseDir, m.Artifacts[i].Dest); err != nil {
			return err
		}
	}
	return nil
}

// DefaultCacheDir returns the per-user cache directory for downloads.
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return filepath.Join(dir, "nativefetch"), nil
}

// ValidationError represents a manifest validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "manifest validation failed for " + e.Field + ": " + e.Message
	}
	return "manifest validation failed: " + e.Message
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 128 {
		return fmt.Errorf("name too long (%d chars, max 128)", len(name))
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid name %q (letters, digits, '.', '_' and '-' only)", name)
	}
	return nil
}

// validateURL accepts absolute http and https URLs.
func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use https:// or http:// scheme (got: %q)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host: %s", raw)
	}
	return nil
}

// validateDest rejects empty destinations and relative paths that climb out of
// the manifest directory.
func validateDest(dest string) error {
	if dest == "" {
		return fmt.Errorf("dest cannot be empty")
	}
	if strings.HasPrefix(dest, "~/") || filepath.IsAbs(dest) {
		return nil
	}
	cleaned := filepath.ToSlash(filepath.Clean(dest))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("path traversal not allowed: %s", dest)
	}
	return nil
}

// resolvePath expands a leading ~ and anchors relative paths at baseDir.
func resolvePath(baseDir, p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/")), nil
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Join(baseDir, p), nil
}
