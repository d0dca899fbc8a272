package build

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid build configuration")
	ErrPreconditionFailed = errors.New("build precondition failed")
	ErrProcessExecution   = errors.New("process exited with non-zero status")
	ErrArtifactNotFound   = errors.New("build artifact not found")
	ErrFileSystem         = errors.New("file system operation failed")
)
