package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harsh-s15/iitj-coder/internal/judge/model"
	"github.com/harsh-s15/iitj-coder/internal/judge/testcase"
	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
	"github.com/harsh-s15/iitj-coder/pkg/utils/logger"
)

// SubmissionStore persists and loads submission records.
type SubmissionStore interface {
	Create(ctx context.Context, sub *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
}

// JobEnqueuer pushes jobs onto the evaluation queue.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *model.Job) error
}

// QuestionInvalidator drops cached question data after judging data changes.
type QuestionInvalidator interface {
	InvalidateCache(ctx context.Context, id string) error
}

// SubmitRequest is an incoming evaluation request.
type SubmitRequest struct {
	QuestionID  string `json:"questionId"`
	Code        string `json:"code" binding:"required"`
	Language    string `json:"language" binding:"required"`
	JobType     string `json:"jobType"`
	CustomInput string `json:"customInput"`
}

// IntakeConfig wires the intake service dependencies.
type IntakeConfig struct {
	Submissions SubmissionStore
	Questions   QuestionSource
	Jobs        JobEnqueuer
	HiddenCases testcase.HiddenStore
	Invalidator QuestionInvalidator
}

// IntakeService accepts submissions, queues them for evaluation, and
// manages the hidden test case sets.
type IntakeService struct {
	submissions SubmissionStore
	questions   QuestionSource
	jobs        JobEnqueuer
	hiddenCases testcase.HiddenStore
	invalidator QuestionInvalidator
}

func NewIntakeService(cfg IntakeConfig) (*IntakeService, error) {
	if cfg.Submissions == nil {
		return nil, fmt.Errorf("submission store is required")
	}
	if cfg.Questions == nil {
		return nil, fmt.Errorf("question source is required")
	}
	if cfg.Jobs == nil {
		return nil, fmt.Errorf("job enqueuer is required")
	}
	if cfg.HiddenCases == nil {
		return nil, fmt.Errorf("hidden case store is required")
	}
	return &IntakeService{
		submissions: cfg.Submissions,
		questions:   cfg.Questions,
		jobs:        cfg.Jobs,
		hiddenCases: cfg.HiddenCases,
		invalidator: cfg.Invalidator,
	}, nil
}

// Submit records a QUEUED submission and pushes the evaluation job.
func (s *IntakeService) Submit(ctx context.Context, req SubmitRequest) (*model.Submission, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, appErr.Newf(appErr.InvalidParams, "code is required")
	}
	if req.Language == "" {
		return nil, appErr.Newf(appErr.InvalidParams, "language is required")
	}

	jobType := model.TypeOf(req.JobType)
	var question *model.Question
	if req.QuestionID != "" {
		var err error
		question, err = s.questions.GetByID(ctx, req.QuestionID)
		if err != nil {
			return nil, err
		}
	} else if jobType != model.JobTypeCustom {
		return nil, appErr.Newf(appErr.InvalidParams, "question id is required")
	}

	sub := &model.Submission{
		ID:          uuid.NewString(),
		QuestionID:  req.QuestionID,
		Code:        req.Code,
		Language:    req.Language,
		Status:      model.StatusQueued,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, err
	}

	job := &model.Job{
		SubmissionID: sub.ID,
		QuestionID:   sub.QuestionID,
		Code:         sub.Code,
		Language:     sub.Language,
		JobType:      string(jobType),
		CustomInput:  req.CustomInput,
	}
	if question != nil {
		job.TimeLimit = question.TimeLimit
		job.MemoryLimit = question.MemoryLimit
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, err
	}

	logger.Info(ctx, "submission queued",
		zap.String("submission_id", sub.ID),
		zap.String("question_id", sub.QuestionID),
		zap.String("job_type", string(jobType)))
	return sub, nil
}

// Status loads a submission without exposing the submitted code.
func (s *IntakeService) Status(ctx context.Context, id string) (*model.Submission, error) {
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sub.Code = ""
	return sub, nil
}

// ReplaceHiddenCases swaps the hidden case set for a question and drops
// the cached question record.
func (s *IntakeService) ReplaceHiddenCases(ctx context.Context, questionID string, cases []testcase.Case) error {
	if questionID == "" {
		return appErr.Newf(appErr.InvalidParams, "question id is required")
	}
	if len(cases) == 0 {
		return appErr.Newf(appErr.InvalidParams, "at least one test case is required")
	}
	if _, err := s.questions.GetByID(ctx, questionID); err != nil {
		return err
	}
	if err := s.hiddenCases.Replace(ctx, questionID, cases); err != nil {
		return err
	}
	if s.invalidator != nil {
		if err := s.invalidator.InvalidateCache(ctx, questionID); err != nil {
			logger.Warn(ctx, "question cache invalidation failed",
				zap.String("question_id", questionID), zap.Error(err))
		}
	}
	logger.Info(ctx, "hidden test cases replaced",
		zap.String("question_id", questionID), zap.Int("count", len(cases)))
	return nil
}
