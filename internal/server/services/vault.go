package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akarpov87/securevault/internal/common"
	"github.com/akarpov87/securevault/internal/cryptox"
	"github.com/akarpov87/securevault/internal/dbx"
	"github.com/akarpov87/securevault/internal/server/config"
	"github.com/akarpov87/securevault/internal/server/models"
	"github.com/akarpov87/securevault/internal/server/repositories/repomanager"
)

// VaultService is the access-control and audit coordinator. Every mutating
// operation authorizes against ownership, performs the repository mutation,
// and appends an audit record as one logical unit.
type VaultService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	cipher        *cryptox.Cipher
	maxUploadSize int64
}

// NewVaultService constructs a VaultService using repositories, the cipher
// service, and server config.
func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, c *cryptox.Cipher, cfg *config.Config) *VaultService {
	return &VaultService{
		db:            db,
		repomanager:   m,
		cipher:        c,
		maxUploadSize: cfg.MaxUploadSize,
	}
}

// Upload validates the payload, encrypts it, and stores the file row together
// with its upload audit record in one transaction. An empty filename, empty
// payload, or a payload over the configured maximum yields
// common.ErrorInvalidUpload before anything is written.
func (s *VaultService) Upload(ctx context.Context, userID, filename string, data []byte) (*models.File, error) {
	if filename == "" || len(data) == 0 || int64(len(data)) > s.maxUploadSize {
		return nil, common.ErrorInvalidUpload
	}

	ciphertext, err := s.cipher.Encrypt(data)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	file := &models.File{OwnerID: userID, Filename: filename, Ciphertext: ciphertext}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Files(tx).Create(ctx, file); err != nil {
			return err
		}
		log := &models.OperationLog{
			UserID:  userID,
			FileID:  &file.ID,
			Kind:    models.OpUpload,
			Details: "uploaded " + filename,
		}
		_, err := s.repomanager.OperationLogs(tx).Append(ctx, log)
		return err
	}); err != nil {
		return nil, fmt.Errorf("error storing file: %w", err)
	}

	return file, nil
}

// Download checks ownership, decrypts the blob, and appends a download audit
// record. A missing file yields common.ErrorNotFound, someone else's file
// common.ErrorUnauthorized, and a failed decrypt common.ErrorIntegrity.
func (s *VaultService) Download(ctx context.Context, userID string, fileID int64) (string, []byte, error) {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrorNotFound
		}
		return "", nil, common.ErrorInternal
	}
	if file.OwnerID != userID {
		return "", nil, common.ErrorUnauthorized
	}

	plaintext, err := s.cipher.Decrypt(file.Ciphertext)
	if err != nil {
		return "", nil, err
	}

	log := &models.OperationLog{
		UserID:  userID,
		FileID:  &file.ID,
		Kind:    models.OpDownload,
		Details: "downloaded " + file.Filename,
	}
	if _, err := s.repomanager.OperationLogs(s.db).Append(ctx, log); err != nil {
		// Every access must be logged; an unlogged download is reported,
		// not silently served.
		return "", nil, fmt.Errorf("error logging download: %w", err)
	}

	return file.Filename, plaintext, nil
}

// Delete checks ownership, then appends the delete audit record BEFORE
// removing the file row, in one transaction. The schema nulls the log's
// file reference when the row goes; the detail string keeps the filename.
func (s *VaultService) Delete(ctx context.Context, userID string, fileID int64) error {
	file, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	if file.OwnerID != userID {
		return common.ErrorUnauthorized
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		log := &models.OperationLog{
			UserID:  userID,
			FileID:  &file.ID,
			Kind:    models.OpDelete,
			Details: "deleted " + file.Filename,
		}
		if _, err := s.repomanager.OperationLogs(tx).Append(ctx, log); err != nil {
			return err
		}
		return s.repomanager.Files(tx).Delete(ctx, fileID)
	}); err != nil {
		// A concurrent delete loses the race inside the transaction and
		// must observe NotFound, not a second success.
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error deleting file: %w", err)
	}
	return nil
}

// ListFiles returns the user's files newest first.
func (s *VaultService) ListFiles(ctx context.Context, userID string) ([]*models.FileInfo, error) {
	result, err := s.repomanager.Files(s.db).ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	return result, nil
}

// ListLogs returns the user's audit records newest first.
func (s *VaultService) ListLogs(ctx context.Context, userID string) ([]*models.OperationLog, error) {
	result, err := s.repomanager.OperationLogs(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing logs: %w", err)
	}
	return result, nil
}
