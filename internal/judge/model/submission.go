package model

import "time"

// Submission is the persisted record for one evaluation request.
type Submission struct {
	ID             string    `json:"id"`
	QuestionID     string    `json:"questionId"`
	Code           string    `json:"code,omitempty"`
	Language       string    `json:"language"`
	Status         Status    `json:"status"`
	ResultMetadata string    `json:"resultMetadata,omitempty"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Question holds the per-problem limits and visible cases the evaluator
// needs. VisibleTestCases is the raw JSON array stored with the problem.
type Question struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	TimeLimit        int64  `json:"timeLimit"`
	MemoryLimit      int64  `json:"memoryLimit"`
	VisibleTestCases string `json:"visibleTestCases,omitempty"`
}

// StatusUpdate is the event published after every status transition. The
// relay forwards it verbatim to connected clients.
type StatusUpdate struct {
	ID             string `json:"id"`
	QuestionID     string `json:"questionId"`
	Status         Status `json:"status"`
	ResultMetadata string `json:"resultMetadata,omitempty"`
	Type           string `json:"type"`
	SubmittedAt    string `json:"submittedAt,omitempty"`
}
