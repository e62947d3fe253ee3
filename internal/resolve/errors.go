package resolve

import "fmt"

// UnknownPhaseError reports a spec key that is neither a valid nor a core phase.
type UnknownPhaseError struct {
	Phase string
}

func (e *UnknownPhaseError) Error() string {
	return fmt.Sprintf("`%s` is an incorrect phase for this spec, please review the specfile", e.Phase)
}

// CheckError wraps the error a runner returned from Check.
type CheckError struct {
	Phase  string
	Plugin string
	// Index is the position of the configuration within the plugin's list.
	Index int
	Err   error
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s/%s[%d]: %v", e.Phase, e.Plugin, e.Index, e.Err)
}

func (e *CheckError) Unwrap() error { return e.Err }
