package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/akarpov87/securevault/internal/common"
	"github.com/go-chi/chi/v5"
)

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type fileResponse struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type logResponse struct {
	ID        int64     `json:"id"`
	FileID    *int64    `json:"file_id"`
	Kind      string    `json:"kind"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// readCredentialsForm parses the multipart registration/login form:
// username and password fields plus a face_image file part.
func (s *Server) readCredentialsForm(r *http.Request) (username, password string, image []byte, err error) {
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		return "", "", nil, err
	}
	username = r.FormValue("username")
	password = r.FormValue("password")

	face, _, err := r.FormFile("face_image")
	if err != nil {
		return "", "", nil, err
	}
	defer face.Close()

	image, err = io.ReadAll(face)
	if err != nil {
		return "", "", nil, err
	}
	return username, password, image, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.logger.Info(ctx, "Registration request")

	username, password, image, err := s.readCredentialsForm(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed form")
		return
	}

	user, err := s.identity.Register(ctx, username, password, image)
	if err != nil {
		if errors.Is(err, common.ErrorBadCredential) {
			writeJSONError(w, http.StatusBadRequest, "username and password are required")
			return
		}
		s.logger.Error(ctx, err.Error())
		writeServiceError(w, err)
		return
	}

	s.logger.Info(ctx, "Registered", "username", user.UserName)
	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Username: user.UserName})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username, password, image, err := s.readCredentialsForm(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed form")
		return
	}

	tokens, err := s.identity.Authenticate(ctx, username, password, image)
	if err != nil {
		// A bad photo is worth telling the user about; everything else
		// is one opaque rejection so accounts cannot be enumerated.
		if errors.Is(err, common.ErrorNoFaceDetected) {
			writeJSONError(w, http.StatusUnprocessableEntity, "no face detected")
			return
		}
		if errors.Is(err, common.ErrorNotFound) ||
			errors.Is(err, common.ErrorBadCredential) ||
			errors.Is(err, common.ErrorFaceMismatch) {
			writeJSONError(w, http.StatusUnauthorized, "authentication failed")
			return
		}
		s.logger.Error(ctx, err.Error())
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info(ctx, "Logged in", "username", username)
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeJSONError(w, http.StatusBadRequest, "malformed request")
		return
	}

	tokens, err := s.identity.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenExpired) || errors.Is(err, common.ErrorNotFound) {
			writeJSONError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		s.logger.Error(ctx, err.Error())
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeJSONError(w, http.StatusBadRequest, "malformed request")
		return
	}

	if err := s.identity.Logout(ctx, req.RefreshToken); err != nil {
		s.logger.Error(ctx, err.Error())
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	// Bound the request body; the service enforces the exact payload cap.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize+1<<20)

	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed form")
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed form")
		return
	}

	file, err := s.vault.Upload(ctx, userID, header.Filename, data)
	if err != nil {
		if !errors.Is(err, common.ErrorInvalidUpload) {
			s.logger.Error(ctx, err.Error())
		}
		writeServiceError(w, err)
		return
	}

	s.logger.Info(ctx, "File uploaded", "user_id", userID, "file_id", file.ID)
	writeJSON(w, http.StatusCreated, fileResponse{ID: file.ID, Filename: file.Filename, CreatedAt: file.CreatedAt})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	fileID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	filename, data, err := s.vault.Download(ctx, userID, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorIntegrity) {
			s.logger.Error(ctx, "download failed integrity check", "user_id", userID, "file_id", fileID)
		}
		writeServiceError(w, err)
		return
	}

	s.logger.Info(ctx, "File downloaded", "user_id", userID, "file_id", fileID)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", contentDisposition(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	fileID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}

	if err := s.vault.Delete(ctx, userID, fileID); err != nil {
		writeServiceError(w, err)
		return
	}

	s.logger.Info(ctx, "File deleted", "user_id", userID, "file_id", fileID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	items, err := s.vault.ListFiles(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]fileResponse, 0, len(items))
	for _, f := range items {
		out = append(out, fileResponse{ID: f.ID, Filename: f.Filename, Size: f.Size, CreatedAt: f.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	items, err := s.vault.ListLogs(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, err.Error())
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]logResponse, 0, len(items))
	for _, l := range items {
		out = append(out, logResponse{ID: l.ID, FileID: l.FileID, Kind: string(l.Kind), Details: l.Details, CreatedAt: l.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}
