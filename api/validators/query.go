package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
)

// ParseQueryInt reads an optional numeric query parameter, bounded inclusively.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// RequireQueryPhone reads the shopper's phone identity from the query string.
func RequireQueryPhone(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("phone"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "phone query parameter is required")
	}
	return raw, nil
}

// ParsePathUUID reads a UUID path segment resolved by chi.
func ParsePathUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a UUID").WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
