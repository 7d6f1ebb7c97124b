package storage

import (
	"errors"
	"net/http"

	"github.com/minio/minio-go/v7"
)

// ErrObjectNotFound lets non-MinIO backends signal a missing object.
var ErrObjectNotFound = errors.New("object not found")

// IsNotFound reports whether err means the requested object does not
// exist, as opposed to the backend being unreachable or failing.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrObjectNotFound) {
		return true
	}
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
	}
	return false
}
