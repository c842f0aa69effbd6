package models

import "time"

// File is an owned encrypted blob. OwnerID is immutable after creation;
// Ciphertext is the cipher service's output and is never stored in the clear.
type File struct {
	ID         int64
	OwnerID    string
	Filename   string
	Ciphertext []byte
	CreatedAt  time.Time
}

// FileInfo is a listing row: file metadata without the ciphertext.
type FileInfo struct {
	ID        int64
	Filename  string
	Size      int64
	CreatedAt time.Time
}
