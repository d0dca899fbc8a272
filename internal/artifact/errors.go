package artifact

import "errors"

var (
	ErrNotFound       = errors.New("artifact not found")
	ErrDigestMismatch = errors.New("published artifact digest mismatch")
	ErrPublish        = errors.New("artifact publish failed")
)
