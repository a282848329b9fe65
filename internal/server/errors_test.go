package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
	catalogdomain "github.com/careloop/clinicore/internal/catalog/domain"
	revenuedomain "github.com/careloop/clinicore/internal/revenue/domain"
)

func TestMapError_StatusCodes(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"record locked", billingdomain.ErrRecordLocked, http.StatusConflict, "record_locked"},
		{"stale record", billingdomain.ErrStaleRecord, http.StatusConflict, "stale_record"},
		{"duplicate installment", billingdomain.ErrDuplicateInstallment, http.StatusConflict, "conflict"},
		{"duplicate cost line", catalogdomain.ErrDuplicateCostLine, http.StatusConflict, "conflict"},
		{"record not found", billingdomain.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"installment not found", billingdomain.ErrInstallmentNotFound, http.StatusNotFound, "not_found"},
		{"invalid amount", billingdomain.ErrInvalidAmount, http.StatusBadRequest, "validation_error"},
		{"unknown method", billingdomain.ErrUnknownMethod, http.StatusBadRequest, "validation_error"},
		{"unknown cost line", catalogdomain.ErrUnknownCostLine, http.StatusBadRequest, "validation_error"},
		{"invalid window", revenuedomain.ErrInvalidWindow, http.StatusBadRequest, "validation_error"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantType, payload.Type)
		})
	}
}

func TestMapError_ValidationPayloadCarriesCode(t *testing.T) {
	status, payload := mapError(billingdomain.ErrInvalidAmount)
	assert.Equal(t, http.StatusBadRequest, status)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "invalid_amount", payload.Errors[0].Code)
		assert.Equal(t, "amount", payload.Errors[0].Field)
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	kind, code := classifyErrorForLog(billingdomain.ErrRecordLocked)
	assert.Equal(t, "client", kind)
	assert.Equal(t, "record_locked", code)

	kind, code = classifyErrorForLog(errors.New("boom"))
	assert.Equal(t, "internal", kind)
	assert.Equal(t, "internal_error", code)
}
