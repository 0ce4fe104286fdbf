package engine

import "time"

type ExecSpec struct {
	Bin            string
	Args           []string
	Dir            string
	DisplayCommand string
}

// CommandBuilder turns one identifier and a quality selector into the tool
// invocation that downloads it.
type CommandBuilder interface {
	BuildExecSpec(identifier, selector string) (ExecSpec, error)
}

type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeFailure   OutcomeStatus = "failure"
	OutcomeCancelled OutcomeStatus = "cancelled"
)

// Outcome is the terminal result of one item. Err carries the taxonomy error
// (ErrProcessLaunchFailed, ErrProcessExitNonZero, ErrProcessCancelled) when
// the status is not success.
type Outcome struct {
	Status     OutcomeStatus
	Detail     string
	ExitCode   int
	Duration   time.Duration
	StderrTail string
	Err        error
}

type WorkerState string

const (
	StateIdle       WorkerState = "idle"
	StateRunning    WorkerState = "running"
	StateDraining   WorkerState = "draining"
	StateCancelling WorkerState = "cancelling"
)

type StartRequest struct {
	Identifiers []string
	Selector    string
}

type RunSummary struct {
	RunID       string
	Processed   int
	Succeeded   int
	Failed      int
	Cancelled   int
	NotStarted  int
	Interrupted bool
	Duration    time.Duration
}

// RunSnapshot is a point-in-time view of the active run, safe to take from any
// goroutine.
type RunSnapshot struct {
	RunID             string
	State             WorkerState
	Processed         int
	Succeeded         int
	Failed            int
	Pending           int
	CurrentIdentifier string
}
