package war

import "fmt"

// State is the position of a Session in its round cycle.
type State int32

const (
	RoundStart State = iota
	AwaitPlays
	Validate
	Resolve
	Done
	Killed
)

func (s State) String() string {
	switch s {
	case RoundStart:
		return "round_start"
	case AwaitPlays:
		return "await_plays"
	case Validate:
		return "validate"
	case Resolve:
		return "resolve"
	case Done:
		return "done"
	case Killed:
		return "killed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Terminal reports whether no further rounds can happen.
func (s State) Terminal() bool {
	return s == Done || s == Killed
}
