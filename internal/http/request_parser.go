package http

import (
	"net/http"
	"strings"

	"finboard/internal/period"
)

// rangeParam reads ?range=KEY. A missing or unknown key yields def; ok
// reports whether the caller supplied a valid key (missing counts as valid).
func rangeParam(r *http.Request, def period.RangeKey) (key period.RangeKey, raw string, ok bool) {
	raw = strings.TrimSpace(r.URL.Query().Get("range"))
	if raw == "" {
		return def, raw, true
	}
	k, err := period.ParseRangeKey(raw)
	if err != nil {
		return def, raw, false
	}
	return k, raw, true
}

// accountIDParam returns the {id} path segment, trimmed.
func accountIDParam(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}
