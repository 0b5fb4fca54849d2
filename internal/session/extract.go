package session

import (
	"encoding/base64"
	"net/http"

	"github.com/tidwall/gjson"
)

// RotationHeader is the response header carrying the raw rotation-control
// value for the chained session token.
const RotationHeader = "cf-ray-status-id-tn"

// TokenHeader is the request header the chained token is sent in.
const TokenHeader = "sxsrf"

// EncodeRotationValue transforms a raw rotation-control value into the token
// candidate. The encoding is base64 applied twice; the double pass is kept
// for compatibility with the system this tool targets.
func EncodeRotationValue(raw string) string {
	once := base64.StdEncoding.EncodeToString([]byte(raw))
	return base64.StdEncoding.EncodeToString([]byte(once))
}

// ExtractRotationValue pulls the rotation-control value out of a response and
// returns the encoded token candidate. The designated header is consulted
// first; when it is absent and bodyPath is non-empty, the response body is
// searched with a JSON path. A miss on both returns ok=false and callers
// leave the store unchanged.
func ExtractRotationValue(header http.Header, body []byte, bodyPath string) (string, bool) {
	if raw := header.Get(RotationHeader); raw != "" {
		return EncodeRotationValue(raw), true
	}
	if bodyPath != "" && len(body) > 0 {
		if result := gjson.GetBytes(body, bodyPath); result.Exists() && result.String() != "" {
			return EncodeRotationValue(result.String()), true
		}
	}
	return "", false
}

// Observe applies the extraction policy to a response and feeds any candidate
// into the store.
func Observe(store *Store, header http.Header, body []byte, bodyPath string) {
	if store == nil {
		return
	}
	if candidate, ok := ExtractRotationValue(header, body, bodyPath); ok {
		store.TryUpdate(candidate)
	}
}
