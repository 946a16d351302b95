package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Arjun-745/TrendKart/statemachine"
	"github.com/Arjun-745/TrendKart/store"
)

func TestRespondTransitionError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"missing order", store.ErrNotFound, http.StatusNotFound},
		{"rejected transition", statemachine.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{"lost write race", fmt.Errorf("record gateway order id: %w", store.ErrConflict), http.StatusConflict},
		{"unexpected failure", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondTransitionError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
