// Package services contains server-side business logic. This file implements
// IdentityService, the session gate: registration with face enrollment, and
// two-factor login (password verifier AND face match) minting JWTs plus
// server-stored refresh tokens.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akarpov87/securevault/internal/biometric"
	"github.com/akarpov87/securevault/internal/common"
	"github.com/akarpov87/securevault/internal/cryptox"
	"github.com/akarpov87/securevault/internal/dbx"
	"github.com/akarpov87/securevault/internal/server/auth"
	"github.com/akarpov87/securevault/internal/server/config"
	"github.com/akarpov87/securevault/internal/server/models"
	"github.com/akarpov87/securevault/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// IdentityService provides authentication-related operations:
// - Register: enroll a face template and create the user
// - Authenticate: verify credential and face, mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - Logout: revoke a refresh token
type IdentityService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	extractor                    biometric.Extractor
	matcher                      biometric.Matcher
	matchThreshold               float64
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewIdentityService constructs an IdentityService from repositories, the
// biometric extractor, and server config.
func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, e biometric.Extractor, cfg *config.Config) *IdentityService {
	return &IdentityService{
		db:                           db,
		repomanager:                  m,
		extractor:                    e,
		matchThreshold:               cfg.FaceMatchThreshold,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register enrolls a new user. The image must contain a detectable face
// (common.ErrorNoFaceDetected otherwise) and the username must be free
// (common.ErrorDuplicateUsername otherwise).
func (s *IdentityService) Register(ctx context.Context, username, password string, image []byte) (*models.User, error) {
	if username == "" || password == "" {
		return nil, common.ErrorBadCredential
	}

	template, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("face extraction: %w", err)
	}
	if len(template) == 0 {
		return nil, common.ErrorNoFaceDetected
	}

	salt := common.GenerateRandByteArray(32)
	key := cryptox.DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(key)

	user := &models.User{
		UserName:     username,
		Salt:         salt,
		Verifier:     cryptox.MakeVerifier(key),
		FaceTemplate: template.Encode(),
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Authenticate verifies the password credential AND the face image against
// the enrolled template; both must pass. Failures are distinct sentinels
// (common.ErrorNotFound, ErrorBadCredential, ErrorNoFaceDetected,
// ErrorFaceMismatch) so the surface layer can decide how much to reveal.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string, image []byte) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUserName(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}

	key := cryptox.DeriveKey([]byte(password), user.Salt)
	defer common.WipeByteArray(key)
	if !s.checkVerifier(user.Verifier, cryptox.MakeVerifier(key)) {
		return nil, common.ErrorBadCredential
	}

	candidate, err := s.extractor.Extract(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("face extraction: %w", err)
	}
	if len(candidate) == 0 {
		return nil, common.ErrorNoFaceDetected
	}

	stored, err := biometric.DecodeTemplate(user.FaceTemplate)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !s.matcher.Verify(stored, candidate, s.matchThreshold) {
		return nil, common.ErrorFaceMismatch
	}

	return s.generateTokenPair(ctx, user.ID, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *IdentityService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes a refresh token. Unknown tokens are a no-op.
func (s *IdentityService) Logout(ctx context.Context, refreshToken string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// --- helpers below ---

func (s *IdentityService) checkVerifier(verifier []byte, candidate []byte) bool {
	return subtle.ConstantTimeCompare(verifier, candidate) == 1
}

func (s *IdentityService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
