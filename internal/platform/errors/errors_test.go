package errors

import (
	"encoding/json"
	"fmt"
	"testing"

	"paperflow/internal/testutil"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		baseErr := New("base error")
		wrapped := Wrap(baseErr, "additional context")

		testutil.AssertTrue(t, Is(wrapped, baseErr), "should be able to unwrap to base error")
		testutil.AssertEqual(t, wrapped.Error(), "additional context: base error", "error message should include context")
	})

	t.Run("returns nil when wrapping nil", func(t *testing.T) {
		testutil.AssertTrue(t, Wrap(nil, "context") == nil, "wrapping nil should return nil")
		testutil.AssertTrue(t, Wrapf(nil, "context %d", 1) == nil, "wrapping nil should return nil")
	})

	t.Run("multiple wraps preserve chain", func(t *testing.T) {
		baseErr := New("base")
		wrapped := Wrapf(Wrap(baseErr, "layer 1"), "layer %d", 2)

		testutil.AssertTrue(t, Is(wrapped, baseErr), "should unwrap to base error")
		testutil.AssertEqual(t, wrapped.Error(), "layer 2: layer 1: base", "should show full chain")
	})
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "op and message",
			err:  Validation("orchestrator.validate", "stage name is empty"),
			want: "orchestrator.validate: stage name is empty",
		},
		{
			name: "tool execution carries tool identity",
			err:  ToolExecution("semantic_scholar", "lookup failed", ErrNotFound),
			want: `tool "semantic_scholar" failed: lookup failed: resource not found`,
		},
		{
			name: "external service with cause",
			err:  ExternalService("httpclient.get", "request failed after 3 attempts", ErrServiceUnavailable, true),
			want: "httpclient.get: request failed after 3 attempts: service unavailable",
		},
		{
			name: "cause only",
			err:  E(KindInternal, "", "", ErrTimeout),
			want: "operation timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, tt.err.Error(), tt.want, "message")
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error is internal", New("boom"), KindInternal},
		{"nil is internal", nil, KindInternal},
		{"direct tagged", Coordination("run", "missing input"), KindCoordination},
		{"wrapped tagged", Wrap(Domain("paper", "not found", ErrNotFound), "stage analyze_paper"), KindDomain},
		{"fmt wrapped", fmt.Errorf("ctx: %w", ModelConfiguration("registry", "unknown worker")), KindModelConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, KindOf(tt.err), tt.want, "kind")
		})
	}
}

func TestError_IsMatchesKindTemplate(t *testing.T) {
	err := Wrap(Validation("config", "threshold out of range"), "load")

	testutil.AssertTrue(t, Is(err, &Error{Kind: KindValidation}), "kind template should match")
	testutil.AssertFalse(t, Is(err, &Error{Kind: KindDomain}), "other kind should not match")
	testutil.AssertTrue(t, IsKind(err, KindValidation), "IsKind should match")
}

func TestError_PreservesCause(t *testing.T) {
	err := ExternalService("httpclient.get", "exhausted", Wrap(ErrTimeout, "read"), true)

	testutil.AssertTrue(t, IsTimeout(err), "timeout sentinel should be reachable")
	var tagged *Error
	testutil.AssertTrue(t, As(err, &tagged), "As should find *Error")
	testutil.AssertEqual(t, tagged.Kind, KindExternalService, "kind")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retryable external", ExternalService("op", "5xx", nil, true), true},
		{"non retryable external", ExternalService("op", "400", nil, false), false},
		{"bare timeout", Wrap(ErrTimeout, "dial"), true},
		{"bare connection failure", ErrConnectionFailed, true},
		{"rate limit", ErrRateLimit, true},
		{"not found", ErrNotFound, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, IsRetryable(tt.err), tt.want, "IsRetryable")
		})
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	data, err := json.Marshal(map[string]Kind{"kind": KindToolExecution})
	testutil.AssertNoError(t, err, "marshal")
	testutil.AssertEqual(t, string(data), `{"kind":"tool_execution"}`, "json form")

	var k Kind
	testutil.AssertNoError(t, k.UnmarshalText([]byte("coordination")), "unmarshal")
	testutil.AssertEqual(t, k, KindCoordination, "parsed kind")
	testutil.AssertError(t, k.UnmarshalText([]byte("nope")), "unknown kind should fail")
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrTimeout", ErrTimeout, "operation timed out"},
		{"ErrRateLimit", ErrRateLimit, "rate limit exceeded"},
		{"ErrNotFound", ErrNotFound, "resource not found"},
		{"ErrConnectionFailed", ErrConnectionFailed, "connection failed"},
		{"ErrServiceUnavailable", ErrServiceUnavailable, "service unavailable"},
		{"ErrInvalidResponse", ErrInvalidResponse, "invalid response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, tt.err.Error(), tt.want, "error message should match")
		})
	}
}
