package testcase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
)

const manifestName = "manifest.json"

// FSStore keeps hidden test cases on the local filesystem, one directory
// per question with zero-padded input/output files and a manifest that
// defines the judging order.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create test case root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) questionDir(questionID string) string {
	return filepath.Join(s.root, questionID)
}

func (s *FSStore) List(ctx context.Context, questionID string) ([]Case, error) {
	if questionID == "" {
		return nil, appErr.Newf(appErr.InvalidParams, "question id is required")
	}
	dir := s.questionDir(questionID)
	raw, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.Newf(appErr.TestCaseNotFound, "no test cases for question %s", questionID)
		}
		return nil, appErr.Wrapf(err, appErr.InternalServerError, "read manifest")
	}

	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, appErr.Wrapf(err, appErr.TestCaseInvalid, "decode manifest")
	}
	sortManifest(&m)

	cases := make([]Case, 0, len(m.Cases))
	for _, entry := range m.Cases {
		input, err := os.ReadFile(filepath.Join(dir, entry.Input))
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.TestCaseInvalid, "read input for case %d", entry.Index)
		}
		expected, err := os.ReadFile(filepath.Join(dir, entry.Output))
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.TestCaseInvalid, "read output for case %d", entry.Index)
		}
		cases = append(cases, Case{
			Index:    entry.Index,
			Input:    string(input),
			Expected: string(expected),
		})
	}
	return cases, nil
}

// Replace writes the new case set into a temporary directory and renames
// it over the old one, so readers never observe a half-written set.
func (s *FSStore) Replace(ctx context.Context, questionID string, cases []Case) error {
	if questionID == "" {
		return appErr.Newf(appErr.InvalidParams, "question id is required")
	}

	tmp, err := os.MkdirTemp(s.root, questionID+".tmp-")
	if err != nil {
		return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "create staging dir")
	}
	defer os.RemoveAll(tmp)

	m := manifest{Cases: make([]manifestEntry, 0, len(cases))}
	for i, c := range cases {
		index := c.Index
		if index <= 0 {
			index = i + 1
		}
		inName := fmt.Sprintf("in_%04d.txt", index)
		outName := fmt.Sprintf("out_%04d.txt", index)
		if err := os.WriteFile(filepath.Join(tmp, inName), []byte(c.Input), 0o644); err != nil {
			return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "write input for case %d", index)
		}
		if err := os.WriteFile(filepath.Join(tmp, outName), []byte(c.Expected), 0o644); err != nil {
			return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "write output for case %d", index)
		}
		m.Cases = append(m.Cases, manifestEntry{Index: index, Input: inName, Output: outName})
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "encode manifest")
	}
	if err := os.WriteFile(filepath.Join(tmp, manifestName), raw, 0o644); err != nil {
		return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "write manifest")
	}

	dir := s.questionDir(questionID)
	if err := os.RemoveAll(dir); err != nil {
		return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "remove old case set")
	}
	if err := os.Rename(tmp, dir); err != nil {
		return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "activate new case set")
	}
	return nil
}

var _ HiddenStore = (*FSStore)(nil)
