package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FieldError is a single invalid setting, named by its environment variable.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors lists every invalid setting found by Config.Validate.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var b strings.Builder
	b.WriteString("configuration validation failed:")
	for _, fe := range e {
		b.WriteString("\n  - ")
		b.WriteString(fe.Error())
	}
	return b.String()
}

// checker accumulates FieldErrors so every problem is reported at once.
type checker struct {
	errs ValidationErrors
}

func (c *checker) fail(field, format string, args ...interface{}) {
	c.errs = append(c.errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		c.fail(field, "is required")
	}
}

func (c *checker) positive(field string, d time.Duration) {
	if d <= 0 {
		c.fail(field, "must be positive, got %v", d)
	}
}

func (c *checker) port(field string, p uint16) {
	if p == 0 {
		c.fail(field, "port must be between 1 and 65535")
	}
}

// minLength skips empty values; use required for mandatory ones.
func (c *checker) minLength(field, value string, n int) {
	if value != "" && len(value) < n {
		c.fail(field, "must be at least %d characters, got %d", n, len(value))
	}
}

// absoluteURL skips empty values.
func (c *checker) absoluteURL(field, value string, schemes ...string) {
	if value == "" {
		return
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		c.fail(field, "must be an absolute URL")
		return
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return
		}
	}
	c.fail(field, "unsupported scheme %q", u.Scheme)
}

func (c *checker) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}
