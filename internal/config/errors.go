package config

import "errors"

// ErrInvalidConfig wraps every validation failure; ErrLoadConfig wraps
// provider and decoding failures.
var (
	ErrInvalidConfig = errors.New("config: invalid setting")
	ErrLoadConfig    = errors.New("config: cannot load")
)
