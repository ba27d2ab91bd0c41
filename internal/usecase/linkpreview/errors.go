package linkpreview

import (
	"errors"
	"fmt"
)

var (
	// ErrContentUnavailable indicates that no strategy produced any content:
	// the direct fetch failed outright and no fallback returned data.
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrConfiguration is matched by every *ConfigError.
	ErrConfiguration = errors.New("configuration error")
)

// ConfigError reports a mode that requires a capability which is not
// configured. It is returned before any network call is made.
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Setting == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Setting, e.Message)
}

// Is makes errors.Is(err, ErrConfiguration) true for any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}
