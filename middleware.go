package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
	models "github.com/CodeAndHammer/guessr/internal/models"
	util "github.com/CodeAndHammer/guessr/internal/util"
)

const contentSecurityPolicy = "default-src 'none'; base-uri 'none'; form-action 'self'; frame-ancestors 'none';"

func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", contentSecurityPolicy)
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
		}
		c.Next()
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.Request.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), constants.RequestIDKey, reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", reqID)
		c.Next()
	}
}

func requestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		lg := util.Ctx(c.Request.Context())
		ev := lg.Info()
		if status >= http.StatusInternalServerError {
			ev = lg.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func getLimiter(app *models.App, key string) *rate.Limiter {
	app.LimiterMutex.RLock()
	entry, ok := app.LimiterMap[key]
	app.LimiterMutex.RUnlock()
	if ok {
		app.LimiterMutex.Lock()
		if entry, ok = app.LimiterMap[key]; ok {
			entry.LastAccess = time.Now()
		}
		app.LimiterMutex.Unlock()
		if ok {
			return entry.Limiter
		}
	}

	app.LimiterMutex.Lock()
	defer app.LimiterMutex.Unlock()
	if entry, ok = app.LimiterMap[key]; ok {
		entry.LastAccess = time.Now()
		return entry.Limiter
	}

	if key == "" || key == "::1" {
		util.LogWarn("Rate limiter key is empty or loopback: %q", key)
	}
	rps := app.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	burst := app.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), burst)
	app.LimiterMap[key] = &models.RateLimiterEntry{
		Limiter:    lim,
		LastAccess: time.Now(),
	}
	return lim
}

func rateLimitMiddleware(app *models.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !getLimiter(app, key).Allow() {
			util.Ctx(c.Request.Context()).Warn().Str("client_ip", key).Msg("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": constants.ErrorCodeRateLimited})
			return
		}
		c.Next()
	}
}

// csrfMiddleware issues the double-submit token cookie when it is missing.
func csrfMiddleware(app *models.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !app.CSRFEnabled {
			c.Next()
			return
		}
		token, err := c.Cookie(constants.CSRFCookieName)
		if err != nil || len(token) < 8 {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err == nil {
				token = fmt.Sprintf("%x", b)
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(constants.CSRFCookieName, token, int(app.SessionTTL.Seconds()), "/", "", app.IsProduction, false)
			}
		}
		c.Set(constants.CSRFCookieName, token)
		c.Next()
	}
}

// validateCSRFMiddleware rejects mutating requests whose header or form token
// does not match the cookie.
func validateCSRFMiddleware(app *models.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !app.CSRFEnabled || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		cookie, _ := c.Cookie(constants.CSRFCookieName)
		token := c.GetHeader("X-CSRF-Token")
		if token == "" {
			token = c.PostForm(constants.CSRFCookieName)
		}
		if token == "" || cookie == "" || token != cookie {
			util.Ctx(c.Request.Context()).Warn().Str("path", c.Request.URL.Path).Msg("Rejected request with invalid csrf token")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": constants.ErrorCodeCSRF})
			return
		}
		c.Next()
	}
}
