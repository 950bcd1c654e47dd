package httpx

import (
	"errors"
	"net/http"
	"testing"

	"github.com/KOMKZ/go-yogan-quota/errcode"
	"github.com/KOMKZ/go-yogan-quota/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorResponse_LayeredError(t *testing.T) {
	err := errcode.ErrAPICreditsExhausted.WithData("limit", int64(10))
	status, resp := ErrorResponse(err)

	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, 200001, resp.Code)
	assert.Equal(t, map[string]interface{}{"limit": int64(10)}, resp.Data)
}

func TestErrorResponse_WrappedLayeredError(t *testing.T) {
	err := errcode.ErrQuotaStore.Wrap(errors.New("redis down"))
	status, resp := ErrorResponse(err)

	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, 200002, resp.Code)
	assert.Nil(t, resp.Data)
}

func TestErrorResponse_PlainError(t *testing.T) {
	status, resp := ErrorResponse(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", resp.Msg)
}

func TestAbortWithError(t *testing.T) {
	engine := gin.New()
	var reached bool
	engine.GET("/x", func(c *gin.Context) {
		AbortWithError(c, errcode.ErrValidation.WithData("fields", map[string]string{"group": "required"}))
	}, func(c *gin.Context) {
		reached = true
	})
	engine.GET("/ok", func(c *gin.Context) { OkJson(c, gin.H{"used": 3}) })

	resp := testutil.GET("/x").Do(engine)
	assert.Equal(t, http.StatusBadRequest, resp.Status())
	assert.False(t, reached)

	var body Response
	require.NoError(t, resp.JSON(&body))
	assert.Equal(t, 101010, body.Code)

	resp = testutil.GET("/ok").Do(engine)
	assert.Equal(t, http.StatusOK, resp.Status())
	assert.Contains(t, resp.Body(), `"used":3`)
}
