package mapping

import (
	"errors"
	"fmt"
)

// ErrConfig is the sentinel behind every *ConfigError.
var ErrConfig = errors.New("invalid mapping config")

// ConfigError describes a problem at a location inside the configuration.
type ConfigError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Path == "" {
		return "mapping config: " + msg
	}
	return fmt.Sprintf("mapping config: %s: %s", e.Path, msg)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(path, format string, args ...any) *ConfigError {
	return &ConfigError{Path: path, Msg: fmt.Sprintf(format, args...)}
}
