package testcase

import (
	"context"
	"encoding/json"
	"sort"

	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
)

// Case is one test case with its position in the judging order.
type Case struct {
	Index    int
	Input    string
	Expected string
}

// HiddenStore provides the hidden test cases for a question. Order is
// defined by the stored manifest, not by file naming.
type HiddenStore interface {
	// List returns the hidden cases in manifest order. An unknown
	// question yields TestCaseNotFound.
	List(ctx context.Context, questionID string) ([]Case, error)

	// Replace atomically swaps the stored hidden set for a question.
	Replace(ctx context.Context, questionID string, cases []Case) error
}

// visiblePair is the wire shape of one visible test case as stored on the
// question record.
type visiblePair struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// ParseVisible decodes the visible test case JSON stored with a question.
// Cases are numbered from 1 in declaration order. An empty document yields
// an empty slice.
func ParseVisible(raw string) ([]Case, error) {
	if raw == "" {
		return nil, nil
	}
	var pairs []visiblePair
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, appErr.Wrapf(err, appErr.TestCaseInvalid, "decode visible test cases")
	}
	cases := make([]Case, 0, len(pairs))
	for i, p := range pairs {
		cases = append(cases, Case{Index: i + 1, Input: p.Input, Expected: p.Output})
	}
	return cases, nil
}

// manifest records the authoritative ordering of a hidden case set.
type manifest struct {
	Cases []manifestEntry `json:"cases"`
}

type manifestEntry struct {
	Index  int    `json:"index"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

func sortManifest(m *manifest) {
	sort.Slice(m.Cases, func(i, j int) bool {
		return m.Cases[i].Index < m.Cases[j].Index
	})
}
