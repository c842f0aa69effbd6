package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/akarpov87/securevault/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the service error taxonomy onto HTTP status codes.
// NotFound and Unauthorized are deliberately distinguishable (404 vs 403).
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrorInvalidUpload):
		writeJSONError(w, http.StatusBadRequest, "invalid upload")
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSONError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, common.ErrorNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorDuplicateUsername):
		writeJSONError(w, http.StatusConflict, "username already taken")
	case errors.Is(err, common.ErrorNoFaceDetected):
		writeJSONError(w, http.StatusUnprocessableEntity, "no face detected")
	case errors.Is(err, common.ErrorIntegrity):
		writeJSONError(w, http.StatusInternalServerError, "integrity check failed")
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

// percentEncode encodes s for use in a Content-Disposition filename
// parameter, RFC 5987 style: unreserved bytes pass through, everything else
// (UTF-8 sequences included) becomes %XX.
func percentEncode(s string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0f])
	}
	return b.String()
}

// contentDisposition builds an attachment header carrying both the plain and
// the extended filename parameter, derived from the same encoded value so
// non-ASCII names survive every client.
func contentDisposition(filename string) string {
	encoded := percentEncode(filename)
	return `attachment; filename="` + encoded + `"; filename*=UTF-8''` + encoded
}
