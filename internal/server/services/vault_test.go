package services

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/akarpov87/securevault/internal/common"
	"github.com/akarpov87/securevault/internal/cryptox"
	"github.com/akarpov87/securevault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVaultFixture(t *testing.T) (*VaultService, *memStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	cipher, err := cryptox.NewCipher(bytes.Repeat([]byte{0x42}, cryptox.KeySize))
	require.NoError(t, err)

	store := newMemStore()
	svc := NewVaultService(db, &fakeRepoManager{store: store}, cipher, testConfig())
	return svc, store, mock, db
}

func mustUpload(t *testing.T, svc *VaultService, mock sqlmock.Sqlmock, userID, filename string, data []byte) *models.File {
	t.Helper()
	mock.ExpectBegin()
	mock.ExpectCommit()
	f, err := svc.Upload(context.Background(), userID, filename, data)
	require.NoError(t, err)
	return f
}

func TestUpload_Validation(t *testing.T) {
	svc, _, _, db := newVaultFixture(t)
	defer db.Close()

	cases := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"empty filename", "", []byte("data")},
		{"empty payload", "notes.txt", nil},
		{"over size limit", "big.bin", make([]byte, (10<<20)+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), "u-1", tc.filename, tc.data)
			assert.ErrorIs(t, err, common.ErrorInvalidUpload)
		})
	}
}

func TestUpload_Success(t *testing.T) {
	svc, store, mock, db := newVaultFixture(t)
	defer db.Close()

	plaintext := []byte("hello")
	f := mustUpload(t, svc, mock, "u-1", "notes.txt", plaintext)

	assert.NotZero(t, f.ID)
	stored := store.files[f.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, plaintext, stored.Ciphertext, "payload must be stored encrypted")
	assert.NotContains(t, string(stored.Ciphertext), "hello")

	require.Len(t, store.logs, 1)
	log := store.logs[0]
	assert.Equal(t, models.OpUpload, log.Kind)
	assert.Equal(t, "uploaded notes.txt", log.Details)
	require.NotNil(t, log.FileID)
	assert.Equal(t, f.ID, *log.FileID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownload_RoundTrip(t *testing.T) {
	svc, store, mock, db := newVaultFixture(t)
	defer db.Close()

	f := mustUpload(t, svc, mock, "u-1", "notes.txt", []byte("hello"))

	name, data, err := svc.Download(context.Background(), "u-1", f.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", name)
	assert.Equal(t, []byte("hello"), data)

	require.Len(t, store.logs, 2)
	assert.Equal(t, models.OpDownload, store.logs[1].Kind)
	assert.Equal(t, "downloaded notes.txt", store.logs[1].Details)
}

func TestDownload_NotFound(t *testing.T) {
	svc, _, _, db := newVaultFixture(t)
	defer db.Close()

	_, _, err := svc.Download(context.Background(), "u-1", 404)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDownload_WrongOwner(t *testing.T) {
	svc, store, mock, db := newVaultFixture(t)
	defer db.Close()

	f := mustUpload(t, svc, mock, "u-1", "notes.txt", []byte("hello"))

	_, _, err := svc.Download(context.Background(), "u-2", f.ID)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	// Nothing must leak and nothing beyond the upload must be logged.
	assert.Len(t, store.logs, 1)
}

func TestDownload_TamperedCiphertext(t *testing.T) {
	svc, store, mock, db := newVaultFixture(t)
	defer db.Close()

	f := mustUpload(t, svc, mock, "u-1", "notes.txt", []byte("hello"))

	stored := store.files[f.ID]
	stored.Ciphertext[len(stored.Ciphertext)-1] ^= 0xFF

	_, _, err := svc.Download(context.Background(), "u-1", f.ID)
	assert.ErrorIs(t, err, common.ErrorIntegrity)
}

func TestDelete_AppendsLogBeforeRemovingRow(t *testing.T) {
	svc, store, mock, db := newVaultFixture(t)
	defer db.Close()

	f := mustUpload(t, svc, mock, "u-1", "notes.txt", []byte("hello"))
	store.calls = nil

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.Delete(context.Background(), "u-1", f.ID))

	require.Equal(t, []string{"logs.append:delete", "files.delete"}, store.calls,
		"audit record must be written before the row is removed")

	_, ok := store.files[f.ID]
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_WrongOwner(t *testing.T) {
	svc, store, mock, db := newVaultFixture(t)
	defer db.Close()

	f := mustUpload(t, svc, mock, "u-1", "notes.txt", []byte("hello"))

	err := svc.Delete(context.Background(), "u-2", f.ID)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, ok := store.files[f.ID]
	assert.True(t, ok, "file must survive an unauthorized delete")
}

func TestDelete_NotFound(t *testing.T) {
	svc, _, _, db := newVaultFixture(t)
	defer db.Close()

	err := svc.Delete(context.Background(), "u-1", 404)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestListFiles_OwnerScoped(t *testing.T) {
	svc, _, mock, db := newVaultFixture(t)
	defer db.Close()

	mustUpload(t, svc, mock, "u-1", "a.txt", []byte("aaa"))
	mustUpload(t, svc, mock, "u-2", "b.txt", []byte("bbb"))
	mustUpload(t, svc, mock, "u-1", "c.txt", []byte("ccc"))

	got, err := svc.ListFiles(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c.txt", got[0].Filename)
	assert.Equal(t, "a.txt", got[1].Filename)
}

// The full lifecycle: upload, download, delete. The file is gone afterwards
// but all three audit records survive, newest first, with nil file
// references and the filename preserved in the detail strings.
func TestLifecycle_AuditSurvivesDeletion(t *testing.T) {
	svc, _, mock, db := newVaultFixture(t)
	defer db.Close()

	f := mustUpload(t, svc, mock, "u-1", "notes.txt", []byte("hello"))

	_, data, err := svc.Download(context.Background(), "u-1", f.ID)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.Delete(context.Background(), "u-1", f.ID))

	filesLeft, err := svc.ListFiles(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Empty(t, filesLeft)

	logs, err := svc.ListLogs(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, logs, 3)

	assert.Equal(t, models.OpDelete, logs[0].Kind)
	assert.Equal(t, models.OpDownload, logs[1].Kind)
	assert.Equal(t, models.OpUpload, logs[2].Kind)
	for _, l := range logs {
		assert.Nil(t, l.FileID, "file reference must be nulled once the file is gone")
		assert.True(t, strings.Contains(l.Details, "notes.txt"),
			"detail string must keep the filename: %q", l.Details)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}
