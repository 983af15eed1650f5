package scope

import "errors"

// ErrInvalidScope is returned for unknown scope kinds or a missing scope id.
var ErrInvalidScope = errors.New("invalid scope")
