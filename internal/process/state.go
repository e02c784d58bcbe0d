package process

// State is the terminal state of a supervised command.
type State int

const (
	StateNormal State = iota
	StateFail
	StateTimeoutTotal
	StateTimeoutInactive
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateFail:
		return "fail"
	case StateTimeoutTotal:
		return "timeout_total"
	case StateTimeoutInactive:
		return "timeout_inactive"
	default:
		return "unknown"
	}
}

// IsTimeout reports whether the state was committed by one of the timers.
func (s State) IsTimeout() bool {
	return s == StateTimeoutTotal || s == StateTimeoutInactive
}

const (
	InactivityTimeoutMessage = "Command killed due to inactivity timeout"
	TotalTimeoutMessage      = "Command killed due to total timeout"
)

// Outcome is the single result of one supervised command.
type Outcome struct {
	// Output is every captured chunk with CSI color and erase sequences removed.
	// Line endings are left as the terminal produced them.
	Output   string
	State    State
	Error    string
	ExitCode int
}
