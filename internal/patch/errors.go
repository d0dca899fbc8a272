package patch

import "errors"

var (
	ErrConfigFileMissing = errors.New("config file missing")
	ErrBackupMissing     = errors.New("config backup missing")
	ErrPatch             = errors.New("config patch failed")
	ErrRestore           = errors.New("config restore failed")
)
