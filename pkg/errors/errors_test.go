package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusConflict, publicMsg: "order was modified concurrently", retryable: true, detailsOK: true},
		{code: CodeInvalidTransition, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInvalidPin, status: http.StatusForbidden, publicMsg: "invalid tracking pin"},
		{code: CodeSignature, status: http.StatusBadRequest, publicMsg: "signature verification failed"},
		{code: CodeMaterialization, status: http.StatusInternalServerError, publicMsg: "order could not be created"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.publicMsg, meta.PublicMessage)
			assert.Equal(t, tt.retryable, meta.Retryable)
			assert.Equal(t, tt.detailsOK, meta.DetailsAllowed)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	require.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "missing foo", base.Message())
	require.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "foo"})
	require.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, CodeConflict, wrapped.Code())
	require.Contains(t, wrapped.Error(), "boom")
}

func TestAsAndCodeOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeInvalidPin, "pin mismatch"))

	got := As(err)
	require.NotNil(t, got)
	require.Equal(t, CodeInvalidPin, got.Code())
	require.True(t, IsCode(err, CodeInvalidPin))
	require.Equal(t, CodeInternal, CodeOf(stdErrors.New("plain")))
	require.Nil(t, As(nil))
	require.False(t, IsCode(nil, CodeInternal))
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeMaterialization, stdErrors.New("insert failed"), "create order")

	dump := Dump(err)
	require.Equal(t, CodeMaterialization, dump.Code)
	require.Len(t, dump.Chain, 2)
	require.Empty(t, dump.PGCode)
}

func TestDumpExtractsPostgresColumn(t *testing.T) {
	pgxErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "orders_order_code_key",
		TableName:      "orders",
		ColumnName:     "order_code",
	}
	dump := Dump(Wrap(CodeConflict, pgxErr, "insert order"))
	require.Equal(t, "23505", dump.PGCode)
	require.Equal(t, "orders", dump.PGTable)
	require.Equal(t, "order_code", dump.PGColumn)

	pqErr := &pq.Error{Code: "23502", Table: "order_items", Column: "sku"}
	dump = Dump(fmt.Errorf("outer: %w", pqErr))
	require.Equal(t, "23502", dump.PGCode)
	require.Equal(t, "sku", dump.PGColumn)
}
