package failure

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

// TestHTTPStatus verifies each error kind maps to its response status.
func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("bad"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("ctx: %w", Validation("bad")), http.StatusBadRequest},
		{"auth", &AuthError{Message: "no"}, http.StatusUnauthorized},
		{"configuration", Configuration("unset"), http.StatusInternalServerError},
		{"remote", Remote("append", errors.New("boom")), http.StatusInternalServerError},
		{"plain", errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestRemote_WrapsOnce verifies Remote does not double-wrap and keeps the cause.
func TestRemote_WrapsOnce(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := Remote("get", Remote("get", cause))

	var rse *RemoteServiceError
	if !errors.As(err, &rse) {
		t.Fatalf("expected RemoteServiceError, got %T", err)
	}
	if rse.Err != cause {
		t.Errorf("double wrapped: inner = %v", rse.Err)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if Remote("get", nil) != nil {
		t.Error("Remote(nil) should be nil")
	}
}

// TestIsUserFacing verifies only validation and auth messages are exposed.
func TestIsUserFacing(t *testing.T) {
	if !IsUserFacing(Validation("x")) {
		t.Error("validation should be user facing")
	}
	if IsUserFacing(Configuration("x")) {
		t.Error("configuration should not be user facing")
	}
	if IsUserFacing(Remote("x", errors.New("y"))) {
		t.Error("remote should not be user facing")
	}
}
