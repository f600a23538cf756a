// Package assert holds the small set of test assertions used across the repo.
package assert

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func Equal(t *testing.T, expected, actual any, msg string) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("%s: expected %#v, got %#v", msg, expected, actual)
	}
}

func NotEqual(t *testing.T, unexpected, actual any, msg string) {
	t.Helper()
	if reflect.DeepEqual(unexpected, actual) {
		t.Errorf("%s: did not expect %#v", msg, actual)
	}
}

func True(t *testing.T, cond bool, msg string) {
	t.Helper()
	if !cond {
		t.Errorf("%s: expected true", msg)
	}
}

func False(t *testing.T, cond bool, msg string) {
	t.Helper()
	if cond {
		t.Errorf("%s: expected false", msg)
	}
}

func Nil(t *testing.T, v any, msg string) {
	t.Helper()
	if !isNil(v) {
		t.Errorf("%s: expected nil, got %#v", msg, v)
	}
}

func NotNil(t *testing.T, v any, msg string) {
	t.Helper()
	if isNil(v) {
		t.Errorf("%s: expected non-nil", msg)
	}
}

// Len checks the length of a slice, map, string or channel.
func Len(t *testing.T, v any, n int, msg string) {
	t.Helper()
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Chan, reflect.Array:
		if rv.Len() != n {
			t.Errorf("%s: expected length %d, got %d", msg, n, rv.Len())
		}
	default:
		t.Errorf("%s: cannot take length of %T", msg, v)
	}
}

func NoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

func Error(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected an error", msg)
	}
}

// ErrorIs checks errors.Is(err, target).
func ErrorIs(t *testing.T, err, target error, msg string) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("%s: expected error %v, got %v", msg, target, err)
	}
}

func Contains(t *testing.T, s, substr string, msg string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("%s: %q does not contain %q", msg, s, substr)
	}
}

func Greater(t *testing.T, a, b int, msg string) {
	t.Helper()
	if a <= b {
		t.Errorf("%s: expected %d > %d", msg, a, b)
	}
}

func GreaterOrEqual(t *testing.T, a, b int, msg string) {
	t.Helper()
	if a < b {
		t.Errorf("%s: expected %d >= %d", msg, a, b)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
