package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		expected  bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", expected: true, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusForbidden, publicMsg: "not authorized", expected: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", expected: true},
		{code: CodeCooldownActive, status: http.StatusTooManyRequests, publicMsg: "cooldown active", expected: true, detailsOK: true},
		{code: CodeEmptyCart, status: http.StatusUnprocessableEntity, publicMsg: "cart is empty", expected: true},
		{code: CodeStateConflict, status: http.StatusConflict, publicMsg: "state transition disallowed", expected: true, detailsOK: true},
		{code: CodePersistence, status: http.StatusServiceUnavailable, publicMsg: "storage unavailable"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error"},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Expected != tt.expected {
			t.Fatalf("code %s expected expected=%v got %v", tt.code, tt.expected, meta.Expected)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodePersistence, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodePersistence {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New(CodeNotFound, "no pending order")
	err := fmt.Errorf("ship: %w", New(CodeNotFound, "other message"))
	if !stdErrors.Is(err, sentinel) {
		t.Fatal("expected errors.Is to match on code")
	}
	if stdErrors.Is(err, New(CodeValidation, "x")) {
		t.Fatal("different codes must not match")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeUnauthorized, "no entry")
	if got := As(err); got == nil || got.Code() != CodeUnauthorized {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatal("untyped errors should map to internal")
	}
	if !HasCode(fmt.Errorf("wrap: %w", New(CodeEmptyCart, "empty")), CodeEmptyCart) {
		t.Fatal("expected HasCode to see wrapped code")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("mirror write: %w", Wrap(CodePersistence, stdErrors.New("connection refused"), "upsert order"))
	dump := Dump(err)
	if dump.Code != CodePersistence {
		t.Fatalf("expected persistence code, got %s", dump.Code)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
	if dump.PGCode != "" {
		t.Fatalf("expected no pg code, got %q", dump.PGCode)
	}
	if dump.Expected {
		t.Fatal("persistence failures are not expected")
	}
}

func TestDumpReadsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey", TableName: "orders"}
	dump := Dump(Wrap(CodePersistence, fmt.Errorf("insert: %w", pgErr), "upsert order"))
	if dump.PGCode != "23505" || dump.PGConstraint != "orders_pkey" || dump.PGTable != "orders" {
		t.Fatalf("unexpected pg fields %+v", dump)
	}
}

func TestDumpMarksExpectedCodes(t *testing.T) {
	if !Dump(New(CodeCooldownActive, "wait")).Expected {
		t.Fatal("cooldown denials are expected")
	}
}
