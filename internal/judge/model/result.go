package model

// Case visibility markers used in submission result payloads.
const (
	CaseVisible = "visible"
	CaseHidden  = "hidden"
)

// CustomOutput is the payload for a successful custom run.
type CustomOutput struct {
	Output string `json:"output"`
}

// CustomError is the payload for a failed custom run.
type CustomError struct {
	Error string `json:"error"`
}

// CaseResult is one test case entry in a visible-run or submission payload.
// Hidden entries carry only the case number, verdict and visibility marker;
// input and output fields are never populated for them.
type CaseResult struct {
	TestCase int     `json:"testCase"`
	Passed   bool    `json:"passed"`
	Input    *string `json:"input,omitempty"`
	Expected *string `json:"expected,omitempty"`
	Actual   *string `json:"actual,omitempty"`
	Type     string  `json:"type,omitempty"`
}

// VisibleCaseResult builds an entry exposing the full case data.
func VisibleCaseResult(num int, passed bool, input, expected, actual string) CaseResult {
	return CaseResult{
		TestCase: num,
		Passed:   passed,
		Input:    &input,
		Expected: &expected,
		Actual:   &actual,
	}
}

// SubmitVisibleResult builds a submit-phase entry for a visible case.
// Submission payloads record expected and actual output but not the input.
func SubmitVisibleResult(num int, passed bool, expected, actual string) CaseResult {
	return CaseResult{
		TestCase: num,
		Passed:   passed,
		Expected: &expected,
		Actual:   &actual,
		Type:     CaseVisible,
	}
}

// HiddenCaseResult builds an entry that leaks nothing about the case.
func HiddenCaseResult(num int, passed bool) CaseResult {
	return CaseResult{
		TestCase: num,
		Passed:   passed,
		Type:     CaseHidden,
	}
}

// SubmitResult is the payload for a full submission: the total number of
// cases the submission was judged against and the per-case entries that
// were actually run.
type SubmitResult struct {
	Total   int          `json:"total"`
	Results []CaseResult `json:"results"`
}
