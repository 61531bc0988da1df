package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"atelie/internal/core"
)

// parseID reads a positive integer id from the given form field.
func parseID(r *http.Request, field string) (int64, error) {
	v := strings.TrimSpace(r.Form.Get(field))
	if v == "" {
		return 0, fmt.Errorf("missing %s", field)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s: %q", field, v)
	}
	return id, nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: parsedTime}, nil
}

// parseOptionalMoney parses a decimal amount form field; empty means nil.
func parseOptionalMoney(r *http.Request, field string) (*core.Money, error) {
	v := strings.TrimSpace(r.Form.Get(field))
	if v == "" {
		return nil, nil
	}
	cents, err := core.ParseDecimalToCents(v)
	if err != nil {
		return nil, err
	}
	return &core.Money{Cents: cents}, nil
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
