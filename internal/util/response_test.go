package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleErrorMapsTaxonomy(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		code int
	}{
		{NewValidationError("filename", "bad"), http.StatusBadRequest},
		{fmt.Errorf("load: %w", ErrNotFound), http.StatusNotFound},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrSessionRevoked, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{&StorageError{Op: "write", Key: "k", Err: errors.New("disk full")}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		HandleError(c, tc.err)

		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tc.code, resp.Code)
	}
}

func TestHandleErrorReportsStorageFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	HandleError(c, fmt.Errorf("upload: %w", &StorageError{Op: "write", Key: "cotton/videos/a.mp4", Err: errors.New("disk full")}))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "Storage operation failed, please retry", resp.Message)
	assert.True(t, IsStorage(fmt.Errorf("x: %w", &StorageError{Op: "delete"})))
	assert.False(t, IsStorage(ErrNotFound))
}
