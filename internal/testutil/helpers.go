// internal/testutil/helpers.go
package testutil

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"paperflow/internal/platform/logx"
)

// AssertEqual checks that two comparable values are equal.
func AssertEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

// AssertNotEqual checks that two values differ.
func AssertNotEqual(t *testing.T, got, want interface{}, msg string) {
	t.Helper()
	if got == want {
		t.Errorf("%s: got %v, should not equal %v", msg, got, want)
	}
}

// AssertDeepEqual compares structured values and prints a cmp diff on mismatch.
func AssertDeepEqual(t *testing.T, got, want interface{}, msg string, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Errorf("%s: mismatch (-want +got):\n%s", msg, diff)
	}
}

// AssertNil checks that a value is nil.
func AssertNil(t *testing.T, got interface{}, msg string) {
	t.Helper()
	if !isNil(got) {
		t.Errorf("%s: expected nil, got %v", msg, got)
	}
}

// AssertNotNil checks that a value is not nil.
func AssertNotNil(t *testing.T, got interface{}, msg string) {
	t.Helper()
	if isNil(got) {
		t.Errorf("%s: expected non-nil value", msg)
	}
}

// isNil treats typed nil pointers, maps, slices and funcs as nil.
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// AssertError checks that err is not nil.
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", msg)
	}
}

// AssertNoError checks that err is nil.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", msg, err)
	}
}

// AssertTrue checks that a condition holds.
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Errorf("%s: expected true, got false", msg)
	}
}

// AssertFalse checks that a condition does not hold.
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Errorf("%s: expected false, got true", msg)
	}
}

// AssertContains checks that a slice holds an element or a string holds a substring.
func AssertContains(t *testing.T, container interface{}, element string, msg string) {
	t.Helper()

	switch v := container.(type) {
	case []string:
		for _, item := range v {
			if item == element {
				return
			}
		}
		t.Errorf("%s: slice %v does not contain %s", msg, v, element)
	case string:
		if !strings.Contains(v, element) {
			t.Errorf("%s: string %q does not contain %q", msg, v, element)
		}
	default:
		t.Errorf("%s: unsupported type for AssertContains", msg)
	}
}

// AssertDuration checks that d lies within [min, max].
func AssertDuration(t *testing.T, d, min, max time.Duration, msg string) {
	t.Helper()
	if d < min || d > max {
		t.Errorf("%s: duration %s outside [%s, %s]", msg, d, min, max)
	}
}

// NewTestLogger returns a debug-level logger writing into a buffer, so tests
// can inspect log lines without polluting stderr.
func NewTestLogger() (logx.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return logx.NewWithWriter(buf, logx.LevelDebug), buf
}

// SilentLogger returns a logger that drops everything below error level.
func SilentLogger() logx.Logger {
	return logx.NewWithWriter(&bytes.Buffer{}, logx.LevelError)
}
