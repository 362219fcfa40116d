package push

import "time"

// Policy bounds reconnection: a fixed delay between attempts and a maximum
// number of consecutive attempts. The delay does not grow.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPolicy waits 5 seconds between attempts and gives up after 10.
func DefaultPolicy() Policy {
	return Policy{
		Interval:    5 * time.Second,
		MaxAttempts: 10,
	}
}

// State is the connection state of the push channel.
type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "OPEN"
	}
	return "CLOSED"
}

// Phase is the reconnection policy state.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseConnected    Phase = "connected"
	PhaseDisconnected Phase = "disconnected"
	PhaseGivenUp      Phase = "given_up"
	PhaseStopped      Phase = "stopped"
)

// Status is a point-in-time snapshot of the manager.
type Status struct {
	State       State  `json:"-"`
	Connected   bool   `json:"connected"`
	Phase       Phase  `json:"phase"`
	Attempts    int    `json:"reconnect_attempts"`
	MaxAttempts int    `json:"max_reconnect_attempts"`
	URL         string `json:"url"`
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
