package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:       http.StatusBadRequest,
		CodeNotFound:         http.StatusNotFound,
		CodeStateConflict:    http.StatusUnprocessableEntity,
		CodeUnknownProduct:   http.StatusUnprocessableEntity,
		CodeQuantityMismatch: http.StatusUnprocessableEntity,
		CodeDependency:       http.StatusServiceUnavailable,
	}
	for code, status := range cases {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("MetadataFor(%s) status = %d, want %d", code, got, status)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to internal, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("disk on fire")
	err := Wrap(CodeDependency, cause, "saving movement")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	inner := New(CodeQuantityMismatch, "expected 100 got 90")
	outer := fmt.Errorf("import batch: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeQuantityMismatch {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestDumpBuildsChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("root"), "outer")
	dump := Dump(err)
	if dump.Code != CodeInternal {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected chain of at least 2, got %v", dump.Chain)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad row").WithDetails(map[string]any{"row": 3})
	details, ok := err.Details().(map[string]any)
	if !ok || details["row"] != 3 {
		t.Fatalf("unexpected details %v", err.Details())
	}
}
