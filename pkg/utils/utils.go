package utils

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// TimestampLayout is the persisted timestamp format. Values are always UTC.
const TimestampLayout = "2006-01-02 15:04:05"

// FormatTimestamp renders t in TimestampLayout, dropping sub-second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a TimestampLayout value as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	return time.ParseInLocation(TimestampLayout, s, time.UTC)
}

// TruncateSecond returns t in UTC without its fractional second.
func TruncateSecond(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// BoolToInt encodes a flag as 0 or 1.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IntToBool decodes a 0/1 flag. Any other value is an error.
func IntToBool(i int) (bool, error) {
	switch i {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("flag must be 0 or 1, got %d", i)
}

// EncodeStrings encodes a list as JSON text. A nil list encodes as [].
func EncodeStrings(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

// DecodeStrings decodes JSON text produced by EncodeStrings.
func DecodeStrings(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty list")
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, err
	}
	if list == nil {
		return nil, fmt.Errorf("list is null")
	}
	return list, nil
}

// GenerateRandomHex returns n random bytes, hex encoded.
func GenerateRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// DerefString returns the pointed-to string or "".
func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CopyStrings returns a copy of list that shares no memory with it.
func CopyStrings(list []string) []string {
	if list == nil {
		return nil
	}
	return append([]string(nil), list...)
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
