package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"github.com/KOMKZ/go-yogan-quota/testutil"
	"github.com/KOMKZ/go-yogan-quota/throttle"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedResolver struct {
	limits quota.UsageLimits
}

func (r fixedResolver) Resolve(ctx context.Context, groupID uint64, now time.Time) quota.UsageLimits {
	return r.limits
}

type failingChecker struct{}

func (failingChecker) CheckAndConsume(ctx context.Context, groupID uint64, now time.Time) (throttle.Decision, error) {
	return throttle.Decision{}, errors.New("redis down")
}

var clock = time.Date(2024, 5, 31, 23, 59, 0, 0, time.UTC)

func groupFromHeader(c *gin.Context) (uint64, bool) {
	if c.GetHeader("X-Group") == "" {
		return 0, false
	}
	return 7, true
}

func newEngine(t *testing.T, checker CreditChecker, log logger.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(TraceID())
	engine.Use(APICreditWithConfig(APICreditConfig{
		Checker:   checker,
		GroupFunc: groupFromHeader,
		Logger:    log,
		Now:       func() time.Time { return clock },
	}))
	engine.GET("/api/tasks", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return engine
}

func TestAPICredit_RejectsWhenExhausted(t *testing.T) {
	th, err := throttle.New(throttle.NewMemoryCounterStore(),
		fixedResolver{limits: quota.UsageLimits{MaxAPICreditsPerMonth: quota.Int64(2)}},
		logger.NewTestCtxLogger())
	require.NoError(t, err)
	engine := newEngine(t, th, logger.NewTestCtxLogger())

	for i := 0; i < 2; i++ {
		resp := testutil.GET("/api/tasks").WithHeader("X-Group", "acme").Do(engine)
		assert.Equal(t, http.StatusOK, resp.Status())
	}

	resp := testutil.GET("/api/tasks").WithHeader("X-Group", "acme").Do(engine)
	assert.Equal(t, http.StatusTooManyRequests, resp.Status())
	assert.Equal(t, "60", resp.Header("Retry-After"))
	assert.NotEmpty(t, resp.Header(TraceIDHeader))

	var body struct {
		Code int                    `json:"code"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, resp.JSON(&body))
	assert.Equal(t, 200001, body.Code)
	assert.Equal(t, "2024-06-01T00:00:00Z", body.Data["retry_at"])
	assert.Equal(t, float64(2), body.Data["limit"])
	assert.Equal(t, float64(2), body.Data["used"])
}

func TestAPICredit_UnbilledRequestsPass(t *testing.T) {
	th, err := throttle.New(throttle.NewMemoryCounterStore(),
		fixedResolver{limits: quota.UsageLimits{MaxAPICreditsPerMonth: quota.Int64(0)}},
		logger.NewTestCtxLogger())
	require.NoError(t, err)
	engine := newEngine(t, th, logger.NewTestCtxLogger())

	resp := testutil.GET("/api/tasks").Do(engine)
	assert.Equal(t, http.StatusOK, resp.Status())
}

func TestAPICredit_FailsOpenOnStoreError(t *testing.T) {
	log := logger.NewTestCtxLogger()
	engine := newEngine(t, failingChecker{}, log)

	resp := testutil.GET("/api/tasks").
		WithHeader("X-Group", "acme").
		WithHeader(TraceIDHeader, "trace-123").
		Do(engine)
	assert.Equal(t, http.StatusOK, resp.Status())
	assert.Equal(t, "trace-123", resp.Header(TraceIDHeader))

	logs := log.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "API credit check failed, request let through", logs[0].Message)
	assert.Equal(t, "trace-123", logs[0].TraceID)
}

func TestAPICreditWithConfig_RequiresChecker(t *testing.T) {
	assert.Panics(t, func() {
		APICreditWithConfig(APICreditConfig{GroupFunc: groupFromHeader})
	})
}
