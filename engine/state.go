package engine

// State is the lifecycle state of the foreign runtime.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateShuttingDown
	StateTerminated
)

var stateNames = []string{
	"Uninitialized",
	"Initializing",
	"Ready",
	"ShuttingDown",
	"Terminated",
}

// String returns the state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}
