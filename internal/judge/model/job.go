package model

// JobType selects which evaluation mode a job runs.
type JobType string

const (
	// JobTypeCustom runs the code once against user-supplied input.
	JobTypeCustom JobType = "RUN_CUSTOM"
	// JobTypeVisible runs every visible test case without short-circuiting.
	JobTypeVisible JobType = "RUN_VISIBLE"
	// JobTypeSubmit runs visible then hidden cases, stopping at first failure.
	JobTypeSubmit JobType = "SUBMIT"
)

// TypeOf maps a raw job type string to a JobType. Anything other than the
// custom and visible markers is treated as a submission, matching the
// producer's contract.
func TypeOf(raw string) JobType {
	switch raw {
	case string(JobTypeCustom):
		return JobTypeCustom
	case string(JobTypeVisible):
		return JobTypeVisible
	default:
		return JobTypeSubmit
	}
}

// Job is the wire format of a queued evaluation job.
type Job struct {
	SubmissionID string `json:"submissionId"`
	QuestionID   string `json:"questionId"`
	Code         string `json:"code"`
	Language     string `json:"language"`
	// TimeLimit is the per-run CPU budget in milliseconds.
	TimeLimit int64 `json:"timeLimit"`
	// MemoryLimit is the container memory ceiling in megabytes.
	MemoryLimit int64  `json:"memoryLimit"`
	JobType     string `json:"jobType"`
	// CustomInput is only read for RUN_CUSTOM jobs.
	CustomInput string `json:"customInput"`
}

// Type returns the effective evaluation mode for the job.
func (j *Job) Type() JobType {
	return TypeOf(j.JobType)
}
