package conversation

import (
	"errors"
	"fmt"
)

// ErrLLMNotConfigured is returned by every bridge operation when no model
// provider has credentials. No network call is attempted.
var ErrLLMNotConfigured = errors.New("conversation: LLM provider is not configured")

// ConfigError names the provider and setting that is missing.
type ConfigError struct {
	Provider string
	Key      string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("conversation: %s provider requires %s to be set", e.Provider, e.Key)
}

func (e *ConfigError) Unwrap() error { return ErrLLMNotConfigured }
