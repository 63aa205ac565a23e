package config

import "git.home.luguber.info/inful/depmerge/internal/foundation/normalization"

// RetryBackoffMode enumerates supported backoff strategies for forge API retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryModes = normalization.New("retry mode", map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
})

// NormalizeRetryBackoff converts user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	m, _ := retryModes.Normalize(raw)
	return m
}

// RetryConfig holds backoff settings for transient forge failures.
// Delays are Go duration strings such as "500ms" or "2s".
type RetryConfig struct {
	Mode         string `yaml:"mode"`
	InitialDelay string `yaml:"initial_delay"`
	MaxDelay     string `yaml:"max_delay"`
	MaxRetries   int    `yaml:"max_retries"`
}
