package config

// ConfigFileNames are the file names FindConfig looks for, in order.
var ConfigFileNames = []string{".exprassert.yaml", ".exprassert.yml"}

// Environment variables that override file settings
const (
	EnvLogLevel = "EXPRASSERT_LOG_LEVEL"
	EnvColor    = "EXPRASSERT_COLOR"
	EnvMaxItems = "EXPRASSERT_MAX_ITEMS"
)

// Color modes for failure reports
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Defaults
const (
	DefaultLogLevel           = "warn"
	DefaultColor              = ColorAuto
	DefaultMaxEnumerableItems = 50
)

// Version is reported by exprassert -version.
const Version = "0.1.0"
