package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/platform"
)

// Parser represents a Lua manifest parser with platform detection.
type Parser struct {
	detector platform.Detector
	log      logr.Logger
}

// NewParser creates a new manifest parser with the given platform detector.
// A nil detector leaves the platform table undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, log: logr.Discard()}
}

// WithLogger returns a copy of the parser that logs to log.
func (p *Parser) WithLogger(log logr.Logger) *Parser {
	cp := *p
	cp.log = log
	return &cp
}

// ParseFile reads and parses the manifest at path. Relative paths in the
// manifest are resolved against the manifest's directory and environment
// overrides are applied.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if len(data) > MaxManifestSize {
		return nil, &ParseError{
			Message: "manifest too large",
			Detail:  fmt.Sprintf("%s exceeds %d bytes", path, MaxManifestSize),
		}
	}

	m, err := p.ParseString(ctx, string(data))
	if err != nil {
		return nil, err
	}

	m.ApplyEnv()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	if err := m.ResolvePaths(filepath.Dir(abs)); err != nil {
		return nil, err
	}

	p.log.V(1).Info("manifest loaded", "path", abs, "artifacts", len(m.Artifacts))
	return m, nil
}

// ParseString parses a Lua manifest from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Manifest, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ParseError{Message: "manifest evaluation timed out", Detail: ctxErr.Error()}
		}
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractManifest(L)
}

// ParseError represents a manifest parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractManifest reads the global manifest table from a Lua state.
func extractManifest(L *lua.LState) (*Manifest, error) {
	global := L.GetGlobal(luaGlobalManifest)
	table, ok := global.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobalManifest),
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}

	m := &Manifest{}
	var err error

	if m.CacheDir, err = stringField(table, luaFieldCacheDir, luaFieldCacheDir); err != nil {
		return nil, err
	}
	if m.Retries, err = intField(table, luaFieldRetries, luaFieldRetries); err != nil {
		return nil, err
	}
	if m.Concurrency, err = intField(table, luaFieldConcurrency, luaFieldConcurrency); err != nil {
		return nil, err
	}
	if m.Keyring, err = stringField(table, luaFieldKeyring, luaFieldKeyring); err != nil {
		return nil, err
	}
	if m.LockDestinations, err = boolField(table, luaFieldLockDest, luaFieldLockDest); err != nil {
		return nil, err
	}

	switch v := table.RawGetString(luaFieldArtifacts).(type) {
	case *lua.LTable:
		if m.Artifacts, err = extractArtifacts(v); err != nil {
			return nil, err
		}
	case *lua.LNilType:
	default:
		return nil, &ValidationError{Field: luaFieldArtifacts, Message: fmt.Sprintf("expected table, got %s", v.Type())}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// extractArtifacts reads the artifact list. nil slots, as produced by
// platform.when, are skipped.
func extractArtifacts(table *lua.LTable) ([]Artifact, error) {
	var (
		artifacts []Artifact
		firstErr  error
	)

	table.ForEach(func(key, value lua.LValue) {
		if firstErr != nil || value == lua.LNil {
			return
		}

		idx, ok := key.(lua.LNumber)
		if !ok {
			firstErr = &ValidationError{Field: luaFieldArtifacts, Message: fmt.Sprintf("unexpected key %q, artifacts must be a list", key.String())}
			return
		}
		entry, ok := value.(*lua.LTable)
		if !ok {
			firstErr = &ValidationError{
				Field:   fmt.Sprintf("artifacts[%d]", int(idx)),
				Message: fmt.Sprintf("expected table, got %s", value.Type()),
			}
			return
		}
		if len(artifacts) >= MaxArtifactCount {
			firstErr = &ValidationError{Field: luaFieldArtifacts, Message: fmt.Sprintf("too many artifacts, maximum is %d", MaxArtifactCount)}
			return
		}

		a, err := extractArtifact(entry, fmt.Sprintf("artifacts[%d]", int(idx)))
		if err != nil {
			firstErr = err
			return
		}
		artifacts = append(artifacts, a)
	})

	return artifacts, firstErr
}

func extractArtifact(t *lua.LTable, field string) (Artifact, error) {
	var a Artifact

	strs := []struct {
		name string
		dst  *string
	}{
		{luaFieldName, &a.Name},
		{luaFieldURL, &a.URL},
		{luaFieldChecksumURL, &a.ChecksumURL},
		{luaFieldSignatureURL, &a.SignatureURL},
		{luaFieldOS, &a.OS},
		{luaFieldArch, &a.Arch},
		{luaFieldVariant, &a.Variant},
		{luaFieldVersion, &a.Version},
		{luaFieldPolicy, &a.Policy},
		{luaFieldDest, &a.Dest},
	}
	for _, s := range strs {
		v, err := stringField(t, s.name, field+"."+s.name)
		if err != nil {
			return Artifact{}, err
		}
		*s.dst = v
	}

	var err error
	if a.Headers, err = boolField(t, luaFieldHeaders, field+"."+luaFieldHeaders); err != nil {
		return Artifact{}, err
	}
	if a.Flatten, err = boolField(t, luaFieldFlatten, field+"."+luaFieldFlatten); err != nil {
		return Artifact{}, err
	}

	a.applyDefaults()
	return a, nil
}

func stringField(t *lua.LTable, name, field string) (string, error) {
	switch v := t.RawGetString(name).(type) {
	case lua.LString:
		return string(v), nil
	case *lua.LNilType:
		return "", nil
	default:
		return "", &ValidationError{Field: field, Message: fmt.Sprintf("expected string, got %s", v.Type())}
	}
}

func boolField(t *lua.LTable, name, field string) (bool, error) {
	switch v := t.RawGetString(name).(type) {
	case lua.LBool:
		return bool(v), nil
	case *lua.LNilType:
		return false, nil
	default:
		return false, &ValidationError{Field: field, Message: fmt.Sprintf("expected boolean, got %s", v.Type())}
	}
}

func intField(t *lua.LTable, name, field string) (int, error) {
	switch v := t.RawGetString(name).(type) {
	case lua.LNumber:
		n := int(v)
		if float64(n) != float64(v) {
			return 0, &ValidationError{Field: field, Message: fmt.Sprintf("expected integer, got %v", v)}
		}
		return n, nil
	case *lua.LNilType:
		return 0, nil
	default:
		return 0, &ValidationError{Field: field, Message: fmt.Sprintf("expected number, got %s", v.Type())}
	}
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
