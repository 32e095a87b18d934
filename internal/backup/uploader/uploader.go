// Package uploader defines the pluggable, opaque transport
// BackupCoordinator ships completed backup archives through.
package uploader

import (
	"context"
	"io"
)

// Uploader ships one named archive's bytes to wherever it lives.
// Implementations return a remote path/URI describing where the archive
// landed, for BackupRecord.remote_path.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64) (remotePath string, err error)
}
