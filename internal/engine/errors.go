package engine

import "errors"

var (
	ErrProcessLaunchFailed = errors.New("process launch failed")
	ErrProcessExitNonZero  = errors.New("process exited non-zero")
	ErrProcessCancelled    = errors.New("process cancelled")
	ErrProcessTimedOut     = errors.New("process timed out")
	ErrSupervisorPanic     = errors.New("supervisor panicked")
	ErrStreamRead          = errors.New("stream read failed")
	ErrRunActive           = errors.New("a download run is already active")
	ErrInterrupted         = errors.New("download run interrupted")
)
