// Package middleware provides gin hooks that put the quota engines in front of API handlers.
package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/KOMKZ/go-yogan-quota/errcode"
	"github.com/KOMKZ/go-yogan-quota/httpx"
	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/throttle"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreditChecker charges one API credit for a group
type CreditChecker interface {
	CheckAndConsume(ctx context.Context, groupID uint64, now time.Time) (throttle.Decision, error)
}

// APICreditConfig API credit middleware configuration
type APICreditConfig struct {
	// Checker throttle charging the calls (required)
	Checker CreditChecker

	// GroupFunc resolves the billed group; ok=false lets the request through unbilled (required)
	GroupFunc func(*gin.Context) (groupID uint64, ok bool)

	// Logger defaults to the "quota" module logger
	Logger logger.Logger

	// ErrorHandler runs when the counter store fails (default: log and let the request through)
	ErrorHandler func(*gin.Context, error)

	// RejectHandler runs when the credits are used up (default: 429 with Retry-After)
	RejectHandler func(*gin.Context, throttle.Decision)

	// Now clock (default time.Now)
	Now func() time.Time
}

// APICredit charges every request to the group returned by groupFunc
//
//	engine.Use(middleware.APICredit(th, func(c *gin.Context) (uint64, bool) {
//		return c.GetUint64("group_id"), c.GetUint64("group_id") != 0
//	}))
func APICredit(checker CreditChecker, groupFunc func(*gin.Context) (uint64, bool)) gin.HandlerFunc {
	return APICreditWithConfig(APICreditConfig{Checker: checker, GroupFunc: groupFunc})
}

// APICreditWithConfig creates the middleware from cfg
func APICreditWithConfig(cfg APICreditConfig) gin.HandlerFunc {
	if cfg.Checker == nil {
		panic("APICreditConfig.Checker cannot be nil")
	}
	if cfg.GroupFunc == nil {
		panic("APICreditConfig.GroupFunc cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger("quota")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ErrorHandler == nil {
		log := cfg.Logger
		cfg.ErrorHandler = func(c *gin.Context, err error) {
			log.WarnCtx(c.Request.Context(), "API credit check failed, request let through",
				zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.Next()
		}
	}
	if cfg.RejectHandler == nil {
		cfg.RejectHandler = DefaultRejectHandler(cfg.Now)
	}

	return func(c *gin.Context) {
		groupID, ok := cfg.GroupFunc(c)
		if !ok {
			c.Next()
			return
		}

		decision, err := cfg.Checker.CheckAndConsume(c.Request.Context(), groupID, cfg.Now())
		if err != nil {
			cfg.ErrorHandler(c, err)
			return
		}
		if !decision.Allowed {
			cfg.RejectHandler(c, decision)
			return
		}

		c.Next()
	}
}

// DefaultRejectHandler answers 429 with Retry-After in seconds and the httpx envelope
func DefaultRejectHandler(now func() time.Time) func(*gin.Context, throttle.Decision) {
	return func(c *gin.Context, d throttle.Decision) {
		wait := d.RetryAt.Sub(now())
		if wait < 0 {
			wait = 0
		}
		c.Header("Retry-After", strconv.FormatInt(int64(wait.Round(time.Second)/time.Second), 10))

		e := errcode.ErrAPICreditsExhausted.
			WithData("retry_at", d.RetryAt.Format(time.RFC3339)).
			WithData("used", d.Used)
		if d.Limit != nil {
			e = e.WithData("limit", *d.Limit)
		}
		httpx.AbortWithError(c, e)
	}
}
