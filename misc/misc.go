package misc

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/bugsnag/bugsnag-go"
)

const (
	// RFC3339Milli with milli sec precision
	RFC3339Milli = "2006-01-02T15:04:05.000Z07:00"
)

// EnsureDir creates the directory and any missing parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, os.ModePerm)
}

func TruncateStr(str string, limit int) string {
	if len(str) > limit {
		str = str[:limit]
	}
	return str
}

// ExcerptStr is TruncateStr with an ellipsis marker, used when embedding
// upstream response bodies into error messages.
func ExcerptStr(str string, limit int) string {
	if len(str) <= limit {
		return str
	}
	return TruncateStr(str, limit) + "..."
}

// SanitizeIndicator rejects indicator codes that could escape the raw data
// directory or break a SQL identifier. GHO codes are upper-case
// alphanumerics with underscores (e.g. MDG_0000000007), so anything
// outside that set (path separators, dots, quotes) is rejected outright.
func SanitizeIndicator(indicator string) error {
	if indicator == "" {
		return fmt.Errorf("indicator code is empty")
	}
	for _, r := range indicator {
		valid := r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !valid {
			return fmt.Errorf("indicator code %q contains invalid character %q", indicator, r)
		}
	}
	return nil
}

// AssertError panics if error
func AssertError(err error) {
	if err != nil {
		debug.PrintStack()
		defer bugsnag.AutoNotify()
		panic(err)
	}
}

// Assert panics if false
func Assert(cond bool) {
	if !cond {
		debug.PrintStack()
		defer bugsnag.AutoNotify()
		panic("Assertion failed")
	}
}
