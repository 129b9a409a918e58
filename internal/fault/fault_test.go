package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{name: "nil", err: nil, kind: KindOK, status: http.StatusOK},
		{name: "validation", err: Validation("field %s is required", "serialNumberCustomer"), kind: KindValidation, status: http.StatusBadRequest},
		{name: "not found", err: NotFound("organisation %s", "Lion"), kind: KindNotFound, status: http.StatusNotFound},
		{name: "permission denied", err: PermissionDenied("no"), kind: KindPermissionDenied, status: http.StatusForbidden},
		{name: "conflict", err: Conflict("exists"), kind: KindConflict, status: http.StatusConflict},
		{name: "internal", err: Internal(errors.New("disk"), "read"), kind: KindInternal, status: http.StatusInternalServerError},
		{name: "unclassified", err: errors.New("boom"), kind: KindInternal, status: http.StatusInternalServerError},
		{name: "wrapped", err: fmt.Errorf("create asset: %w", Conflict("exists")), kind: KindConflict, status: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.kind, KindOf(tt.err))
			require.Equal(t, tt.status, Status(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("organisation %s is not enrolled", "Lion")
	require.EqualError(t, err, "organisation Lion is not enrolled")
	require.ErrorIs(t, err, ErrNotFound)

	err = Internal(errors.New("connection reset"), "read %s", "Lion")
	require.ErrorIs(t, err, ErrInternal)
	require.Contains(t, err.Error(), "connection reset")
}
