package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harsh-s15/iitj-coder/internal/judge/model"
	"github.com/harsh-s15/iitj-coder/internal/judge/sandbox"
	"github.com/harsh-s15/iitj-coder/internal/judge/testcase"
	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
	"github.com/harsh-s15/iitj-coder/pkg/utils/logger"
)

const (
	defaultTimeLimitMs = 2000

	timeLimitExceededText = "Time Limit Exceeded"
	evaluationFailedText  = "evaluation failed"
)

// QuestionSource provides question records with their limits and visible
// cases.
type QuestionSource interface {
	GetByID(ctx context.Context, id string) (*model.Question, error)
}

// SubmissionSource provides stored submission records.
type SubmissionSource interface {
	GetByID(ctx context.Context, id string) (*model.Submission, error)
}

// ResultSink records a status transition and broadcasts it.
type ResultSink interface {
	Publish(ctx context.Context, sub *model.Submission) error
}

// Config wires the evaluation service dependencies.
type Config struct {
	Executor    sandbox.Executor
	Questions   QuestionSource
	Submissions SubmissionSource
	HiddenCases testcase.HiddenStore
	Results     ResultSink
}

// Service runs queued evaluation jobs to a terminal status.
type Service struct {
	executor    sandbox.Executor
	questions   QuestionSource
	submissions SubmissionSource
	hiddenCases testcase.HiddenStore
	results     ResultSink
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Questions == nil {
		return nil, fmt.Errorf("question source is required")
	}
	if cfg.HiddenCases == nil {
		return nil, fmt.Errorf("hidden case store is required")
	}
	if cfg.Results == nil {
		return nil, fmt.Errorf("result sink is required")
	}
	return &Service{
		executor:    cfg.Executor,
		questions:   cfg.Questions,
		submissions: cfg.Submissions,
		hiddenCases: cfg.HiddenCases,
		results:     cfg.Results,
	}, nil
}

// Evaluate drives one job from PROCESSING to a terminal status. It returns
// an error only when the context is cancelled mid-run. Test-case metadata
// failures degrade inside the run to a failing verdict; every other
// failure degrades to a terminal ERROR so the submission never sticks in
// PROCESSING.
func (s *Service) Evaluate(ctx context.Context, job *model.Job) error {
	sub := s.loadSubmission(ctx, job)
	sub.Status = model.StatusProcessing
	sub.ResultMetadata = ""
	if err := s.results.Publish(ctx, sub); err != nil {
		logger.Warn(ctx, "record processing status failed",
			zap.String("submission_id", job.SubmissionID), zap.Error(err))
	}

	status, payload, err := s.runJob(ctx, job)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error(ctx, "evaluation failed",
			zap.String("submission_id", job.SubmissionID),
			zap.String("job_type", string(job.Type())),
			zap.Error(err))
		status = model.StatusError
		payload = mustJSON(model.CustomError{Error: evaluationFailedText})
	}

	sub.Status = status
	sub.ResultMetadata = payload
	if err := s.results.Publish(ctx, sub); err != nil {
		logger.Error(ctx, "record terminal status failed",
			zap.String("submission_id", job.SubmissionID),
			zap.String("status", string(status)), zap.Error(err))
		return err
	}
	logger.Info(ctx, "evaluation finished",
		zap.String("submission_id", job.SubmissionID),
		zap.String("status", string(status)))
	return nil
}

func (s *Service) runJob(ctx context.Context, job *model.Job) (model.Status, string, error) {
	switch job.Type() {
	case model.JobTypeCustom:
		return s.runCustom(ctx, job)
	case model.JobTypeVisible:
		return s.runVisible(ctx, job)
	default:
		return s.runSubmit(ctx, job)
	}
}

// loadSubmission prefers the stored record so events carry the original
// submission time; a miss falls back to the job payload.
func (s *Service) loadSubmission(ctx context.Context, job *model.Job) *model.Submission {
	if s.submissions != nil {
		if sub, err := s.submissions.GetByID(ctx, job.SubmissionID); err == nil {
			return sub
		}
	}
	return &model.Submission{
		ID:         job.SubmissionID,
		QuestionID: job.QuestionID,
		Language:   job.Language,
	}
}

func (s *Service) runCustom(ctx context.Context, job *model.Job) (model.Status, string, error) {
	tl, ml := s.resolveLimits(ctx, job)
	res, err := s.executor.Run(ctx, sandbox.Request{
		SubmissionID:  job.SubmissionID,
		Code:          job.Code,
		Language:      job.Language,
		Stdin:         job.CustomInput,
		TimeLimitMs:   tl,
		MemoryLimitMB: ml,
	})
	if err != nil {
		return "", "", err
	}

	switch res.Outcome {
	case sandbox.OutcomeSuccess:
		return model.StatusFinished, mustJSON(model.CustomOutput{Output: res.Stdout}), nil
	case sandbox.OutcomeTimeout:
		return model.StatusError, mustJSON(model.CustomError{Error: timeLimitExceededText}), nil
	default:
		return model.StatusError, mustJSON(model.CustomError{Error: runtimeErrorText(res)}), nil
	}
}

// runVisible executes every visible case, never short-circuiting, so the
// user sees the verdict for each example.
func (s *Service) runVisible(ctx context.Context, job *model.Job) (model.Status, string, error) {
	question, err := s.questions.GetByID(ctx, job.QuestionID)
	if err != nil {
		return s.visibleMetadataFailure(ctx, job, err)
	}
	cases, err := testcase.ParseVisible(question.VisibleTestCases)
	if err != nil {
		return s.visibleMetadataFailure(ctx, job, err)
	}

	tl, ml := limitsFrom(job, question)
	results := make([]model.CaseResult, 0, len(cases))
	allPassed := true
	for _, c := range cases {
		res, err := s.runCase(ctx, job, tl, ml, c.Input)
		if err != nil {
			return "", "", err
		}
		passed, actual := judgeCase(res, c.Expected)
		if !passed {
			allPassed = false
		}
		results = append(results, model.VisibleCaseResult(c.Index, passed, c.Input, c.Expected, actual))
	}

	status := model.StatusFinished
	if !allPassed {
		status = model.StatusFailed
	}
	return status, mustJSON(results), nil
}

// runSubmit judges visible cases first, then hidden ones. Each phase stops
// at the first failure, and the hidden phase only runs when every visible
// case passed. Case numbering continues across phases and the reported
// total always covers the full set, run or not.
func (s *Service) runSubmit(ctx context.Context, job *model.Job) (model.Status, string, error) {
	question, err := s.questions.GetByID(ctx, job.QuestionID)
	if err != nil {
		return s.submitMetadataFailure(ctx, job, err, 0)
	}
	visible, err := testcase.ParseVisible(question.VisibleTestCases)
	if err != nil {
		return s.submitMetadataFailure(ctx, job, err, 0)
	}
	hidden, err := s.hiddenCases.List(ctx, job.QuestionID)
	if err != nil {
		if appErr.GetCode(err) != appErr.TestCaseNotFound {
			return s.submitMetadataFailure(ctx, job, err, len(visible))
		}
		hidden = nil
	}

	tl, ml := limitsFrom(job, question)
	total := len(visible) + len(hidden)
	results := make([]model.CaseResult, 0, total)
	num := 0
	allPassed := true

	for _, c := range visible {
		num++
		res, err := s.runCase(ctx, job, tl, ml, c.Input)
		if err != nil {
			return "", "", err
		}
		passed, actual := judgeCase(res, c.Expected)
		results = append(results, model.SubmitVisibleResult(num, passed, c.Expected, actual))
		if !passed {
			allPassed = false
			break
		}
	}

	if allPassed {
		for _, c := range hidden {
			num++
			res, err := s.runCase(ctx, job, tl, ml, c.Input)
			if err != nil {
				return "", "", err
			}
			passed, _ := judgeCase(res, c.Expected)
			results = append(results, model.HiddenCaseResult(num, passed))
			if !passed {
				allPassed = false
				break
			}
		}
	}

	status := model.StatusAccepted
	if !allPassed {
		status = model.StatusWrongAnswer
	}
	payload := model.SubmitResult{Total: total, Results: results}
	return status, mustJSON(payload), nil
}

// visibleMetadataFailure turns an unreadable question or case set into a
// FAILED verdict; ERROR stays reserved for sandbox faults. A cancelled
// context still abandons the job.
func (s *Service) visibleMetadataFailure(ctx context.Context, job *model.Job, err error) (model.Status, string, error) {
	if ctx.Err() != nil {
		return "", "", ctx.Err()
	}
	logger.Warn(ctx, "visible case metadata unavailable",
		zap.String("submission_id", job.SubmissionID),
		zap.String("question_id", job.QuestionID), zap.Error(err))
	return model.StatusFailed, mustJSON([]model.CaseResult{}), nil
}

// submitMetadataFailure is the submit-phase counterpart; known covers the
// cases that were readable before the failure.
func (s *Service) submitMetadataFailure(ctx context.Context, job *model.Job, err error, known int) (model.Status, string, error) {
	if ctx.Err() != nil {
		return "", "", ctx.Err()
	}
	logger.Warn(ctx, "test case metadata unavailable",
		zap.String("submission_id", job.SubmissionID),
		zap.String("question_id", job.QuestionID), zap.Error(err))
	payload := model.SubmitResult{Total: known, Results: []model.CaseResult{}}
	return model.StatusWrongAnswer, mustJSON(payload), nil
}

func (s *Service) runCase(ctx context.Context, job *model.Job, tl, ml int64, input string) (*sandbox.RunResult, error) {
	return s.executor.Run(ctx, sandbox.Request{
		SubmissionID:  job.SubmissionID,
		Code:          job.Code,
		Language:      job.Language,
		Stdin:         input,
		TimeLimitMs:   tl,
		MemoryLimitMB: ml,
	})
}

// resolveLimits covers custom runs, which may reference no question at all.
func (s *Service) resolveLimits(ctx context.Context, job *model.Job) (int64, int64) {
	if job.TimeLimit > 0 {
		return job.TimeLimit, job.MemoryLimit
	}
	if job.QuestionID != "" {
		if question, err := s.questions.GetByID(ctx, job.QuestionID); err == nil {
			return limitsFrom(job, question)
		}
	}
	return defaultTimeLimitMs, job.MemoryLimit
}

func limitsFrom(job *model.Job, question *model.Question) (int64, int64) {
	tl := job.TimeLimit
	if tl <= 0 {
		tl = question.TimeLimit
	}
	if tl <= 0 {
		tl = defaultTimeLimitMs
	}
	ml := job.MemoryLimit
	if ml <= 0 {
		ml = question.MemoryLimit
	}
	return tl, ml
}

// judgeCase compares trimmed outputs. Runtime errors and timeouts count as
// failed cases with an explanatory actual value.
func judgeCase(res *sandbox.RunResult, expected string) (bool, string) {
	switch res.Outcome {
	case sandbox.OutcomeSuccess:
		actual := strings.TrimSpace(res.Stdout)
		return actual == strings.TrimSpace(expected), actual
	case sandbox.OutcomeTimeout:
		return false, timeLimitExceededText
	default:
		return false, runtimeErrorText(res)
	}
}

func runtimeErrorText(res *sandbox.RunResult) string {
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("runtime error (exit code %d)", res.ExitCode)
}

func mustJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
