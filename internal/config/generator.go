package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Generator renders a Manifest back into Lua source.
type Generator struct {
	indent string
	now    func() time.Time
}

// NewGenerator creates a new Lua manifest generator.
func NewGenerator() *Generator {
	return &Generator{indent: "  ", now: time.Now}
}

// Generate renders m as a manifest that ParseString accepts. Fields that hold
// their zero value or a derived default are omitted.
func (g *Generator) Generate(m *Manifest) (string, error) {
	if m == nil {
		return "", fmt.Errorf("nil manifest")
	}

	var buf bytes.Buffer

	buf.WriteString("-- nativefetch manifest\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(g.now().UTC().Format(time.RFC3339))
	buf.WriteString("\n\n")

	buf.WriteString(luaGlobalManifest)
	buf.WriteString(" = {\n")

	if m.CacheDir != "" {
		g.writeField(&buf, 1, luaFieldCacheDir, g.quoteLuaString(m.CacheDir))
	}
	if m.Retries != 0 {
		g.writeField(&buf, 1, luaFieldRetries, fmt.Sprintf("%d", m.Retries))
	}
	if m.Concurrency != 0 {
		g.writeField(&buf, 1, luaFieldConcurrency, fmt.Sprintf("%d", m.Concurrency))
	}
	if m.Keyring != "" {
		g.writeField(&buf, 1, luaFieldKeyring, g.quoteLuaString(m.Keyring))
	}
	if m.LockDestinations {
		g.writeField(&buf, 1, luaFieldLockDest, "true")
	}

	if len(m.Artifacts) > 0 {
		buf.WriteString(g.indent)
		buf.WriteString(luaFieldArtifacts)
		buf.WriteString(" = {\n")
		for _, a := range m.Artifacts {
			g.writeArtifact(&buf, a)
		}
		buf.WriteString(g.indent)
		buf.WriteString("},\n")
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func (g *Generator) writeArtifact(buf *bytes.Buffer, a Artifact) {
	buf.WriteString(strings.Repeat(g.indent, 2))
	buf.WriteString("{\n")

	const depth = 3
	g.writeField(buf, depth, luaFieldName, g.quoteLuaString(a.Name))
	g.writeField(buf, depth, luaFieldURL, g.quoteLuaString(a.URL))
	if a.ChecksumURL != "" && a.ChecksumURL != a.URL+".sha256" {
		g.writeField(buf, depth, luaFieldChecksumURL, g.quoteLuaString(a.ChecksumURL))
	}

	for _, f := range []struct{ name, value string }{
		{luaFieldSignatureURL, a.SignatureURL},
		{luaFieldOS, a.OS},
		{luaFieldArch, a.Arch},
		{luaFieldVariant, a.Variant},
		{luaFieldVersion, a.Version},
	} {
		if f.value != "" {
			g.writeField(buf, depth, f.name, g.quoteLuaString(f.value))
		}
	}

	if a.Policy != "" && a.Policy != PolicyAll {
		g.writeField(buf, depth, luaFieldPolicy, g.quoteLuaString(a.Policy))
	}
	if a.Headers {
		g.writeField(buf, depth, luaFieldHeaders, "true")
	}
	if a.Flatten {
		g.writeField(buf, depth, luaFieldFlatten, "true")
	}
	g.writeField(buf, depth, luaFieldDest, g.quoteLuaString(a.Dest))

	buf.WriteString(strings.Repeat(g.indent, 2))
	buf.WriteString("},\n")
}

func (g *Generator) writeField(buf *bytes.Buffer, depth int, name, value string) {
	buf.WriteString(strings.Repeat(g.indent, depth))
	buf.WriteString(name)
	buf.WriteString(" = ")
	buf.WriteString(value)
	buf.WriteString(",\n")
}

// quoteLuaString quotes a string for Lua, escaping special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
