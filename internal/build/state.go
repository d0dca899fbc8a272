package build

// A stage of a pipeline run.
//
// A run moves forward through the states in declaration order and ends in
// [StateDone] or [StateFailed]. [StateConfigRestored] is entered on every
// path that reached [StateConfigPatched]; both are skipped when the
// configuration was left unpatched.
type State int

const (
	StateInit State = iota
	StateImageBuilding
	StateConfigPatched
	StateContainerRunning
	StateConfigRestored
	StateArtifactLocated
	StatePublished
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateInit:             "init",
	StateImageBuilding:    "image-building",
	StateConfigPatched:    "config-patched",
	StateContainerRunning: "container-running",
	StateConfigRestored:   "config-restored",
	StateArtifactLocated:  "artifact-located",
	StatePublished:        "published",
	StateDone:             "done",
	StateFailed:           "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Returns true for [StateDone] and [StateFailed].
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
