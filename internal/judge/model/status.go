package model

// Status is the lifecycle state of a submission.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusProcessing Status = "PROCESSING"

	// Custom-run terminals.
	StatusFinished Status = "FINISHED"
	StatusError    Status = "ERROR"

	// Visible-run terminal for a failed run.
	StatusFailed Status = "FAILED"

	// Submission terminals.
	StatusAccepted    Status = "ACCEPTED"
	StatusWrongAnswer Status = "WRONG_ANSWER"
)

// IsTerminal reports whether the status ends the submission lifecycle.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFinished, StatusError, StatusFailed, StatusAccepted, StatusWrongAnswer:
		return true
	}
	return false
}
