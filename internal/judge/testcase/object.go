package testcase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/harsh-s15/iitj-coder/internal/common/storage"
	appErr "github.com/harsh-s15/iitj-coder/pkg/errors"
)

// ObjectStore keeps hidden test cases in object storage so multiple judge
// instances share one case set. Layout mirrors FSStore:
// {prefix}/{questionID}/manifest.json plus one object per case file.
type ObjectStore struct {
	store  storage.ObjectStorage
	bucket string
	prefix string
}

// NewObjectStore wires an object storage backend. prefix may be empty.
func NewObjectStore(store storage.ObjectStorage, bucket, prefix string) (*ObjectStore, error) {
	if store == nil {
		return nil, fmt.Errorf("object storage is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &ObjectStore{store: store, bucket: bucket, prefix: trimPrefix(prefix)}, nil
}

func (s *ObjectStore) key(questionID string, parts ...string) string {
	all := append([]string{s.prefix, questionID}, parts...)
	return path.Join(all...)
}

func (s *ObjectStore) readObject(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.store.GetObject(ctx, s.bucket, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func (s *ObjectStore) List(ctx context.Context, questionID string) ([]Case, error) {
	if questionID == "" {
		return nil, appErr.Newf(appErr.InvalidParams, "question id is required")
	}

	// Only a genuinely missing manifest means the question has no case
	// set. A storage outage must never read as an empty set.
	raw, err := s.readObject(ctx, s.key(questionID, manifestName))
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, appErr.Wrapf(err, appErr.TestCaseNotFound, "no test cases for question %s", questionID)
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
		input, err := s.readObject(ctx, s.key(questionID, entry.Input))
		if err != nil {
			return nil, appErr.Wrapf(err, appErr.TestCaseInvalid, "read input for case %d", entry.Index)
		}
		expected, err := s.readObject(ctx, s.key(questionID, entry.Output))
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

// Replace uploads the new case set, writing the manifest last so readers
// racing a replace either see the old manifest or the complete new set.
// Stale case objects from the previous set are removed afterwards.
func (s *ObjectStore) Replace(ctx context.Context, questionID string, cases []Case) error {
	if questionID == "" {
		return appErr.Newf(appErr.InvalidParams, "question id is required")
	}

	existing, err := s.store.ListObjects(ctx, s.bucket, s.key(questionID)+"/")
	if err != nil {
		return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "list existing objects")
	}

	m := manifest{Cases: make([]manifestEntry, 0, len(cases))}
	fresh := map[string]bool{s.key(questionID, manifestName): true}
	for i, c := range cases {
		index := c.Index
		if index <= 0 {
			index = i + 1
		}
		inName := fmt.Sprintf("in_%04d.txt", index)
		outName := fmt.Sprintf("out_%04d.txt", index)
		inKey := s.key(questionID, inName)
		outKey := s.key(questionID, outName)
		if err := s.putObject(ctx, inKey, c.Input); err != nil {
			return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "upload input for case %d", index)
		}
		if err := s.putObject(ctx, outKey, c.Expected); err != nil {
			return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "upload output for case %d", index)
		}
		fresh[inKey] = true
		fresh[outKey] = true
		m.Cases = append(m.Cases, manifestEntry{Index: index, Input: inName, Output: outName})
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "encode manifest")
	}
	if err := s.putObject(ctx, s.key(questionID, manifestName), string(raw)); err != nil {
		return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "upload manifest")
	}

	var stale []string
	for _, key := range existing {
		if !fresh[key] {
			stale = append(stale, key)
		}
	}
	if len(stale) > 0 {
		if err := s.store.RemoveObjects(ctx, s.bucket, stale); err != nil {
			return appErr.Wrapf(err, appErr.TestCaseUploadFailed, "remove stale objects")
		}
	}
	return nil
}

func (s *ObjectStore) putObject(ctx context.Context, key, content string) error {
	reader := bytes.NewReader([]byte(content))
	return s.store.PutObject(ctx, s.bucket, key, reader, int64(len(content)), "text/plain")
}

// trim guards against accidental trailing separators in configured prefixes.
func trimPrefix(prefix string) string {
	return strings.Trim(prefix, "/")
}

var _ HiddenStore = (*ObjectStore)(nil)
