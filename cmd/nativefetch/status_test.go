package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/nativefetch/internal/testutil"
)

func TestRunStatus(t *testing.T) {
	root := testutil.SetupTestEnv(t)
	rs := newReleaseServer(t)
	sdkURL := rs.publish("sdk.tgz", sdkArchive(t))

	manifest := writeManifest(t, root, `
		nativefetch = {
			artifacts = {
				{ name = "sdk", url = "`+sdkURL+`", dest = "out/sdk" },
				{ name = "later", url = "`+rs.URL+`/later.tgz", dest = "out/later" },
			},
		}
	`)

	var stdout, stderr bytes.Buffer
	if err := runStatus([]string{"-config", manifest}, &stdout, &stderr); err != nil {
		t.Fatalf("runStatus() error = %v", err)
	}
	if strings.Count(stdout.String(), "  ✗ ") != 2 {
		t.Errorf("before fetch, want both missing:\n%s", stdout.String())
	}

	if err := runFetch([]string{"-config", manifest, "-only", "sdk"}, &stdout, &stderr); err != nil {
		t.Fatalf("runFetch() error = %v", err)
	}

	stdout.Reset()
	if err := runStatus([]string{"-config", manifest}, &stdout, &stderr); err != nil {
		t.Fatalf("runStatus() error = %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "✓ sdk -> ") || !strings.Contains(out, "(cached)") {
		t.Errorf("after fetch, want sdk extracted and cached:\n%s", out)
	}
	if !strings.Contains(out, "✗ later -> ") {
		t.Errorf("after fetch, want later missing:\n%s", out)
	}
}

func TestRunStatusEmptyManifest(t *testing.T) {
	root := testutil.SetupTestEnv(t)
	manifest := writeManifest(t, root, `nativefetch = {}`)

	var stdout, stderr bytes.Buffer
	if err := runStatus([]string{"-config", manifest}, &stdout, &stderr); err != nil {
		t.Fatalf("runStatus() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "No artifacts") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
