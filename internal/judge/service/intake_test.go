package service

import (
	"context"
	"testing"

	"github.com/harsh-s15/iitj-coder/internal/judge/model"
	"github.com/harsh-s15/iitj-coder/internal/judge/testcase"
	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
)

type fakeSubmissionStore struct {
	created []*model.Submission
	byID    map[string]*model.Submission
}

func (f *fakeSubmissionStore) Create(ctx context.Context, sub *model.Submission) error {
	f.created = append(f.created, sub)
	return nil
}

func (f *fakeSubmissionStore) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	if sub, ok := f.byID[id]; ok {
		dup := *sub
		return &dup, nil
	}
	return nil, appErr.Newf(appErr.SubmissionNotFound, "submission %s not found", id)
}

type fakeEnqueuer struct {
	jobs []*model.Job
	err  error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, job *model.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

type recordingHidden struct {
	fakeHidden
	replaced map[string][]testcase.Case
}

func (r *recordingHidden) Replace(ctx context.Context, questionID string, cases []testcase.Case) error {
	if r.replaced == nil {
		r.replaced = map[string][]testcase.Case{}
	}
	r.replaced[questionID] = cases
	return nil
}

type recordingInvalidator struct {
	invalidated []string
}

func (r *recordingInvalidator) InvalidateCache(ctx context.Context, id string) error {
	r.invalidated = append(r.invalidated, id)
	return nil
}

func newIntake(t *testing.T, subs *fakeSubmissionStore, enq *fakeEnqueuer, hidden testcase.HiddenStore, inv QuestionInvalidator) *IntakeService {
	t.Helper()
	questions := &fakeQuestions{questions: map[string]*model.Question{
		"q1": {ID: "q1", TimeLimit: 1500, MemoryLimit: 256},
	}}
	if hidden == nil {
		hidden = &fakeHidden{}
	}
	svc, err := NewIntakeService(IntakeConfig{
		Submissions: subs,
		Questions:   questions,
		Jobs:        enq,
		HiddenCases: hidden,
		Invalidator: inv,
	})
	if err != nil {
		t.Fatalf("NewIntakeService: %v", err)
	}
	return svc
}

func TestSubmitQueuesJob(t *testing.T) {
	subs := &fakeSubmissionStore{}
	enq := &fakeEnqueuer{}
	svc := newIntake(t, subs, enq, nil, nil)

	sub, err := svc.Submit(context.Background(), SubmitRequest{
		QuestionID: "q1",
		Code:       "int main() {}",
		Language:   "c",
		JobType:    "SUBMIT",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sub.ID == "" {
		t.Fatal("submission has no id")
	}
	if sub.Status != model.StatusQueued {
		t.Fatalf("status = %s, want QUEUED", sub.Status)
	}
	if len(subs.created) != 1 {
		t.Fatalf("created %d submissions", len(subs.created))
	}
	if len(enq.jobs) != 1 {
		t.Fatalf("enqueued %d jobs", len(enq.jobs))
	}
	job := enq.jobs[0]
	if job.SubmissionID != sub.ID {
		t.Fatal("job does not reference the submission")
	}
	// Question limits ride along on the job.
	if job.TimeLimit != 1500 || job.MemoryLimit != 256 {
		t.Fatalf("job limits = %d/%d", job.TimeLimit, job.MemoryLimit)
	}
}

func TestSubmitCustomWithoutQuestion(t *testing.T) {
	subs := &fakeSubmissionStore{}
	enq := &fakeEnqueuer{}
	svc := newIntake(t, subs, enq, nil, nil)

	_, err := svc.Submit(context.Background(), SubmitRequest{
		Code:        "int main() {}",
		Language:    "c",
		JobType:     "RUN_CUSTOM",
		CustomInput: "5\n",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if enq.jobs[0].CustomInput != "5\n" {
		t.Fatal("custom input not forwarded")
	}
}

func TestSubmitValidation(t *testing.T) {
	svc := newIntake(t, &fakeSubmissionStore{}, &fakeEnqueuer{}, nil, nil)
	ctx := context.Background()

	cases := []SubmitRequest{
		{QuestionID: "q1", Language: "c"},              // no code
		{QuestionID: "q1", Code: "x"},                  // no language
		{Code: "x", Language: "c", JobType: "SUBMIT"},  // no question
		{QuestionID: "nope", Code: "x", Language: "c"}, // unknown question
	}
	for i, req := range cases {
		if _, err := svc.Submit(ctx, req); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestStatusHidesCode(t *testing.T) {
	subs := &fakeSubmissionStore{byID: map[string]*model.Submission{
		"s1": {ID: "s1", Code: "secret", Status: model.StatusAccepted},
	}}
	svc := newIntake(t, subs, &fakeEnqueuer{}, nil, nil)

	sub, err := svc.Status(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if sub.Code != "" {
		t.Fatal("status response exposes submitted code")
	}
}

func TestReplaceHiddenCases(t *testing.T) {
	hidden := &recordingHidden{}
	inv := &recordingInvalidator{}
	svc := newIntake(t, &fakeSubmissionStore{}, &fakeEnqueuer{}, hidden, inv)
	ctx := context.Background()

	cases := []testcase.Case{{Input: "1", Expected: "2"}}
	if err := svc.ReplaceHiddenCases(ctx, "q1", cases); err != nil {
		t.Fatalf("ReplaceHiddenCases: %v", err)
	}
	if len(hidden.replaced["q1"]) != 1 {
		t.Fatal("cases not replaced")
	}
	if len(inv.invalidated) != 1 || inv.invalidated[0] != "q1" {
		t.Fatal("question cache not invalidated")
	}

	if err := svc.ReplaceHiddenCases(ctx, "q1", nil); err == nil {
		t.Fatal("expected error for empty case set")
	}
	if err := svc.ReplaceHiddenCases(ctx, "nope", cases); err == nil {
		t.Fatal("expected error for unknown question")
	}
}
