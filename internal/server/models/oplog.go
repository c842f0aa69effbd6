package models

import "time"

// OperationKind enumerates the audited file operations.
type OperationKind string

const (
	OpUpload   OperationKind = "upload"
	OpDownload OperationKind = "download"
	OpDelete   OperationKind = "delete"
)

// OperationLog is an audit record. FileID is optional: it references the
// subject file while it exists and reads as nil after the file is deleted
// (the schema sets it to NULL rather than cascading). Details captures the
// filename at the time of the action so the information survives deletion.
type OperationLog struct {
	ID        int64
	UserID    string
	FileID    *int64
	Kind      OperationKind
	Details   string
	CreatedAt time.Time
}
