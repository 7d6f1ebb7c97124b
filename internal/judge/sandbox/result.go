package sandbox

// Outcome classifies how a sandboxed execution ended.
type Outcome int

const (
	// OutcomeSuccess means the program exited with code 0 before the deadline.
	OutcomeSuccess Outcome = iota
	// OutcomeRuntimeError means the program exited with a non-zero code.
	OutcomeRuntimeError
	// OutcomeTimeout means the wall deadline elapsed and the process group
	// was force-killed.
	OutcomeTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRuntimeError:
		return "runtime_error"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// RunResult is the observable outcome of one sandboxed execution.
type RunResult struct {
	Outcome  Outcome
	Stdout   string
	Stderr   string
	ExitCode int
	// WallTimeMs is the measured wall clock duration of the execution.
	WallTimeMs int64
	// OutputTruncated is set when stdout or stderr hit the capture cap.
	OutputTruncated bool
}
