package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/akarpov87/securevault/internal/biometric"
	"github.com/akarpov87/securevault/internal/common"
	"github.com/akarpov87/securevault/internal/dbx"
	"github.com/akarpov87/securevault/internal/server/models"
	"github.com/akarpov87/securevault/internal/server/repositories/files"
	"github.com/akarpov87/securevault/internal/server/repositories/oplogs"
	"github.com/akarpov87/securevault/internal/server/repositories/refreshtokens"
	"github.com/akarpov87/securevault/internal/server/repositories/users"
)

// memStore is shared in-memory state behind the fake repositories. It also
// records the order of mutating calls so tests can assert sequencing.
type memStore struct {
	users      map[string]*models.User
	files      map[int64]*models.File
	logs       []*models.OperationLog
	tokens     map[string]*models.RefreshToken
	nextUserID int
	nextFileID int64
	nextLogID  int64
	calls      []string
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[string]*models.User),
		files:  make(map[int64]*models.File),
		tokens: make(map[string]*models.RefreshToken),
	}
}

// fakeRepoManager hands out fakes over the shared store, ignoring the handle.
type fakeRepoManager struct {
	store *memStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return &fakeUsersRepo{m.store} }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository             { return &fakeFilesRepo{m.store} }
func (m *fakeRepoManager) OperationLogs(dbx.DBTX) oplogs.Repository {
	return &fakeOplogsRepo{m.store}
}
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return &fakeRefreshTokensRepo{m.store}
}

type fakeUsersRepo struct{ s *memStore }

func (r *fakeUsersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if _, ok := r.s.users[user.UserName]; ok {
		return nil, common.ErrorDuplicateUsername
	}
	r.s.nextUserID++
	user.ID = fmt.Sprintf("u-%d", r.s.nextUserID)
	user.CreatedAt = time.Now()
	r.s.users[user.UserName] = user
	return user, nil
}

func (r *fakeUsersRepo) GetByUserName(_ context.Context, userName string) (*models.User, error) {
	u, ok := r.s.users[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeFilesRepo struct{ s *memStore }

func (r *fakeFilesRepo) Create(_ context.Context, file *models.File) (*models.File, error) {
	r.s.nextFileID++
	file.ID = r.s.nextFileID
	file.CreatedAt = time.Now()
	cp := *file
	r.s.files[file.ID] = &cp
	r.s.calls = append(r.s.calls, "files.create")
	return file, nil
}

func (r *fakeFilesRepo) GetByID(_ context.Context, id int64) (*models.File, error) {
	f, ok := r.s.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return f, nil
}

func (r *fakeFilesRepo) ListByOwner(_ context.Context, ownerID string) ([]*models.FileInfo, error) {
	var result []*models.FileInfo
	for _, f := range r.s.files {
		if f.OwnerID != ownerID {
			continue
		}
		result = append(result, &models.FileInfo{
			ID:        f.ID,
			Filename:  f.Filename,
			Size:      int64(len(f.Ciphertext)),
			CreatedAt: f.CreatedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Delete removes the row and nulls matching audit references, mirroring the
// schema's ON DELETE SET NULL.
func (r *fakeFilesRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.files, id)
	for _, l := range r.s.logs {
		if l.FileID != nil && *l.FileID == id {
			l.FileID = nil
		}
	}
	r.s.calls = append(r.s.calls, "files.delete")
	return nil
}

type fakeOplogsRepo struct{ s *memStore }

func (r *fakeOplogsRepo) Append(_ context.Context, log *models.OperationLog) (*models.OperationLog, error) {
	r.s.nextLogID++
	cp := *log
	cp.ID = r.s.nextLogID
	cp.CreatedAt = time.Now()
	if log.FileID != nil {
		v := *log.FileID
		cp.FileID = &v
	}
	r.s.logs = append(r.s.logs, &cp)
	r.s.calls = append(r.s.calls, "logs.append:"+string(log.Kind))
	return &cp, nil
}

func (r *fakeOplogsRepo) ListByUser(_ context.Context, userID string) ([]*models.OperationLog, error) {
	var result []*models.OperationLog
	for _, l := range r.s.logs {
		if l.UserID == userID {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

type fakeRefreshTokensRepo struct{ s *memStore }

func (r *fakeRefreshTokensRepo) Create(_ context.Context, userID string, token string, validity time.Duration) error {
	r.s.tokens[token] = &models.RefreshToken{
		UserID:  userID,
		Token:   token,
		Expires: time.Now().Add(validity),
	}
	return nil
}

func (r *fakeRefreshTokensRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (r *fakeRefreshTokensRepo) Delete(_ context.Context, token string) error {
	delete(r.s.tokens, token)
	return nil
}

// fakeExtractor returns a canned template or error.
type fakeExtractor struct {
	template biometric.Template
	err      error
}

func (e *fakeExtractor) Extract(context.Context, []byte) (biometric.Template, error) {
	return e.template, e.err
}

// testTemplate builds a deterministic 128-feature template from a seed.
func testTemplate(seed float64) biometric.Template {
	t := make(biometric.Template, biometric.TemplateSize)
	for i := range t {
		t[i] = seed + float64(i)*0.001
	}
	return t
}
