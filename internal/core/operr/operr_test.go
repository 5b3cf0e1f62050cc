package operr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Invalid("resolve", "mixed references %s and %s", "wkid:4326", "wkid:3857")
	wrapped := fmt.Errorf("evaluate: %w", base)

	if KindOf(wrapped) != InvalidArgument {
		t.Fatalf("kind=%v want invalid_argument", KindOf(wrapped))
	}
	if GRPCCode(wrapped) != codes.InvalidArgument {
		t.Fatalf("grpc code=%v", GRPCCode(wrapped))
	}
	if HTTPStatus(wrapped) != http.StatusBadRequest {
		t.Fatalf("http status=%d", HTTPStatus(wrapped))
	}
}

func TestEngineFailure_KeepsClassifiedErrors(t *testing.T) {
	inv := Invalid("decode", "bad wkt")
	if got := EngineFailure("buffer", inv); got != inv {
		t.Fatalf("classified error should pass through unchanged")
	}
	eng := EngineFailure("buffer", errors.New("degenerate ring"))
	if KindOf(eng) != Engine || eng.Error() != "buffer: degenerate ring" {
		t.Fatalf("unexpected engine error: %v (%v)", eng, KindOf(eng))
	}
	if EngineFailure("buffer", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestGRPCStatus(t *testing.T) {
	st, ok := status.FromError(GRPCStatus(Exhausted("resolve", "depth %d exceeds %d", 40, 32)))
	if !ok || st.Code() != codes.ResourceExhausted {
		t.Fatalf("status=%v ok=%v", st, ok)
	}
	if GRPCStatus(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if GRPCCode(errors.New("boom")) != codes.Internal {
		t.Fatalf("unclassified errors should be internal")
	}
}
