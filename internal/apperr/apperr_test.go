package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad", nil), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{BackendParse(errors.New("x")), http.StatusBadGateway},
		{Backend(errors.New("x")), http.StatusServiceUnavailable},
		{ConfigMissing("no db", http.StatusServiceUnavailable), http.StatusServiceUnavailable},
		{ConfigMissing("no key", http.StatusInternalServerError), http.StatusInternalServerError},
		{Unknown("boom", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatusCode(); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestAsThroughWrapping(t *testing.T) {
	cause := errors.New("upstream")
	wrapped := fmt.Errorf("generate: %w", BackendParse(cause))

	e, ok := As(wrapped)
	if !ok {
		t.Fatalf("expected *Error in chain")
	}
	if e.Kind != KindBackendParse {
		t.Fatalf("unexpected kind %s", e.Kind)
	}
	if !errors.Is(wrapped, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if !IsKind(wrapped, KindBackendParse) || IsKind(wrapped, KindBackend) {
		t.Fatalf("IsKind mismatch")
	}
}
