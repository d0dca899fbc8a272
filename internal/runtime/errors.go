package runtime

import "errors"

var (
	ErrRuntime      = errors.New("runtime error")
	ErrInvalidImage = errors.New("invalid image reference")
)
