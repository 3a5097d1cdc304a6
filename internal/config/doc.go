// Package config parses nativefetch manifests.
//
// A manifest is a Lua file that assigns a global "nativefetch" table listing
// the artifacts to fetch and where to extract them:
//
//	nativefetch = {
//	  cache_dir = "~/.cache/nativefetch",
//	  retries = 3,
//	  concurrency = 2,
//	  keyring = "keys/release.asc",
//	  artifacts = {
//	    {
//	      name = "runtime-linux",
//	      url = "https://host/l_toolkit_" .. platform.variant .. "_2024.3.0_x86_64.tgz",
//	      version = "2024.3.0",
//	      policy = "linux",
//	      flatten = true,
//	      dest = "out/linux-x64",
//	    },
//	    platform.when(platform.is_windows, {
//	      name = "runtime-windows",
//	      url = "https://host/w_toolkit_2024.3.0_x86_64.zip",
//	      policy = "windows",
//	      headers = true,
//	      dest = "out/win-x64",
//	    }),
//	  },
//	}
//
// Manifests run in a sandboxed VM: no os, io, module loading, debug or raw
// table writes. A read-only "platform" table from the platform package is
// available so manifests can select artifacts per host. Parsing is bounded in
// time (DefaultParseTimeout unless the context has a deadline), input size
// (MaxManifestSize) and artifact count (MaxArtifactCount).
//
// Errors are *ParseError for Lua failures and *ValidationError for a
// manifest that runs but describes something invalid.
package config
