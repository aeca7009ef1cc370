package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/SscSPs/vault_ledger/internal/apperrors"
	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestErrorToStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.NewValidationError("bad"), http.StatusBadRequest},
		{fmt.Errorf("x: %w", apperrors.ErrUnbalancedTransaction), http.StatusBadRequest},
		{apperrors.ErrInvalidCurrency, http.StatusBadRequest},
		{apperrors.NewNotFoundError("vault"), http.StatusNotFound},
		{apperrors.ErrAccountNotFound, http.StatusNotFound},
		{apperrors.ErrVaultNotFound, http.StatusNotFound},
		{apperrors.ErrVaultLocked, http.StatusConflict},
		{apperrors.ErrAlreadyReversed, http.StatusConflict},
		{apperrors.ErrConflict, http.StatusConflict},
		{apperrors.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{apperrors.ErrMissingFxRate, http.StatusUnprocessableEntity},
		{apperrors.NewStorageError("write", errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, errorToStatusCode(tt.err), tt.err.Error())
	}
}

func TestEndOfDay(t *testing.T) {
	got, err := endOfDay("2024-02-29")
	assert.NoError(t, err)
	assert.Equal(t, "2024-02-29T23:59:59.999999999Z", got.Format("2006-01-02T15:04:05.999999999Z07:00"))

	none, err := endOfDay("")
	assert.NoError(t, err)
	assert.Nil(t, none)

	_, err = startOfDay("29/02/2024")
	assert.Error(t, err)
}

func TestDecimalGreaterThanZero(t *testing.T) {
	type req struct {
		Amount decimal.Decimal  `binding:"decimal_gt0"`
		Rate   *decimal.Decimal `binding:"omitempty,decimal_gt0"`
	}
	assert.NoError(t, RegisterValidators())

	neg := decimal.NewFromInt(-1)
	assert.NoError(t, binding.Validator.ValidateStruct(req{Amount: decimal.NewFromInt(5)}))
	assert.Error(t, binding.Validator.ValidateStruct(req{Amount: decimal.Zero}))
	assert.Error(t, binding.Validator.ValidateStruct(req{Amount: decimal.NewFromInt(5), Rate: &neg}))
}
