package gateway

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"matchsync/internal/domain/profile"
	"matchsync/internal/infrastructure/upstream"
)

const (
	DefaultMatchLimit       = 10
	DefaultRecommendedLimit = 5

	// MaxPageValue caps offset and limit before they are converted to int.
	MaxPageValue = math.MaxInt32
)

// RequireUserID returns v as a user id when it is a non-empty string.
func RequireUserID(v any) (string, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: user_id is required", profile.ErrValidation)
	}
	return strings.TrimSpace(s), nil
}

// BuildMatchRequest turns a decoded request body into an upstream match
// request. offset and limit accept numbers or numeric strings; anything else
// falls back to 0 and defaultLimit. domain is attached only when non-empty
// after trimming.
func BuildMatchRequest(body map[string]any, defaultLimit int) (upstream.MatchRequest, error) {
	userID, err := RequireUserID(body["user_id"])
	if err != nil {
		return upstream.MatchRequest{}, err
	}

	req := upstream.MatchRequest{
		UserID: userID,
		Offset: coerceInt(body["offset"], 0),
		Limit:  coerceInt(body["limit"], defaultLimit),
		Domain: trimmedString(body["domain"]),
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	return req, nil
}

func coerceInt(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return clampPage(n, def)
	case int:
		return clampPage(float64(n), def)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return clampPage(float64(i), def)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return clampPage(f, def)
		}
	}
	return def
}

func clampPage(f float64, def int) int {
	switch {
	case math.IsNaN(f):
		return def
	case f > MaxPageValue:
		return MaxPageValue
	case f < -MaxPageValue:
		return -MaxPageValue
	}
	return int(f)
}

func trimmedString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
