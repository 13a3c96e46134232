package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ProductNotFound, http.StatusNotFound},
		{CartNotFound, http.StatusNotFound},
		{CartItemNotFound, http.StatusNotFound},
		{ProductUnavailable, http.StatusUnprocessableEntity},
		{MaxQuantityExceeded, http.StatusUnprocessableEntity},
		{InsufficientStock, http.StatusUnprocessableEntity},
		{InvalidQuantity, http.StatusBadRequest},
		{InvalidUserID, http.StatusBadRequest},
		{CartConflict, http.StatusConflict},
		{DependencyUnavailable, http.StatusServiceUnavailable},
		{AuthTokenExpired, http.StatusUnauthorized},
		{AuthzForbidden, http.StatusForbidden},
		{"SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForCode(tt.code))
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
		wantMsg  string
	}{
		{"record not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), "fetch cart", ResourceNotFound, "cart not found"},
		{"duplicate key", gorm.ErrDuplicatedKey, "create cart", ResourceConflict, "resource already exists"},
		{"deadline", context.DeadlineExceeded, "fetch product", DependencyUnavailable, "upstream dependency unavailable, please retry later"},
		{"connection refused", errors.New("dial tcp: connection refused"), "fetch cart", DependencyUnavailable, "upstream dependency unavailable, please retry later"},
		{"unknown on update", errors.New("boom"), "update cart item", InternalServerError, "failed to update resource, please retry later"},
		{"nil", nil, "fetch cart", InternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.Equal(t, tt.wantMsg, info.Message)
		})
	}
}

func TestRespondWithCode_AttachesLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RespondWithCode(c, MaxQuantityExceeded, "maximum order quantity is 10", 10)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, MaxQuantityExceeded, body["error"])
	assert.Equal(t, float64(10), body["limit"])

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	RespondWithCode(c, CartNotFound, "cart not found", 0)

	body = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	_, hasLimit := body["limit"]
	assert.False(t, hasLimit)
}
