package config

const (
	defaultRoot             = "."
	defaultManifestName     = "manifest"
	defaultHashLength       = 6
	defaultAlgorithm        = "sha1"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultRegistryURLPath  = "/static/"
	defaultWatchDebounceMS  = 200
	maxHashLength           = 64
	logLevelEnv             = "WEBSTATIC_LOG_LEVEL"
	defaultFaviconExtension = "ico"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Root:     defaultRoot,
			Manifest: defaultManifestName,
		},
		Manifest: Manifest{
			HashLength: defaultHashLength,
			Algorithm:  defaultAlgorithm,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Registry: Registry{
			URLPath: defaultRegistryURLPath,
		},
		Watch: Watch{
			DebounceMillis: defaultWatchDebounceMS,
		},
	}
}
