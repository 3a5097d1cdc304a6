package config

import "time"

// Lua schema field names and globals
const (
	luaGlobalManifest    = "nativefetch"
	luaFieldCacheDir     = "cache_dir"
	luaFieldRetries      = "retries"
	luaFieldConcurrency  = "concurrency"
	luaFieldKeyring      = "keyring"
	luaFieldLockDest     = "lock_destinations"
	luaFieldArtifacts    = "artifacts"
	luaFieldName         = "name"
	luaFieldURL          = "url"
	luaFieldChecksumURL  = "checksum_url"
	luaFieldSignatureURL = "signature_url"
	luaFieldOS           = "os"
	luaFieldArch         = "arch"
	luaFieldVariant      = "variant"
	luaFieldVersion      = "version"
	luaFieldPolicy       = "policy"
	luaFieldHeaders      = "headers"
	luaFieldFlatten      = "flatten"
	luaFieldDest         = "dest"
)

// Resource limits
const (
	// DefaultParseTimeout applies when the parse context has no deadline.
	DefaultParseTimeout = 5 * time.Second
	// MaxManifestSize is the largest manifest file ParseFile accepts.
	MaxManifestSize = 1 << 20
	// MaxArtifactCount is the largest number of artifacts in one manifest.
	MaxArtifactCount = 256

	maxRetries       = 10
	maxConcurrency   = 32
	luaCallStackSize = 256
	luaRegistrySize  = 8 * 1024
)

// EnvCacheDir overrides the manifest's cache_dir when set.
const EnvCacheDir = "NATIVEFETCH_CACHE_DIR"

// Policy names accepted in artifact entries.
const (
	PolicyLinux   = "linux"
	PolicyWindows = "windows"
	PolicyAll     = "all"
)
