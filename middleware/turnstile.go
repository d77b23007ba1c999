// api/middleware/turnstile.go

package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edgegate/api/audit"
	"github.com/edgegate/api/db"
	gate_errors "github.com/edgegate/api/errors"
	logger "github.com/edgegate/api/logging"
	"github.com/edgegate/api/turnstile"
	"github.com/edgegate/api/util"
)

// TokenHeader carries the client-supplied Turnstile token.
const TokenHeader = "X-Turnstile-Token"

// TokenCache is the gate's view of the token cache. Lookup never errors; any
// infrastructure failure comes back as db.Unavailable.
type TokenCache interface {
	Lookup(ctx context.Context, token string) db.LookupResult
	MarkValid(ctx context.Context, token string)
}

// TurnstileOptions holds the gate's collaborators. A nil Cache or Verifier
// means the gate is not configured: the middleware then passes every request
// through unchecked (fail-open, so a missing secret degrades availability of
// the check rather than the service).
type TurnstileOptions struct {
	Cache    TokenCache
	Verifier turnstile.Verifier
	EventBus *util.EventBus
}

// Turnstile verifies the request's Turnstile token before downstream
// handling. Decision table:
//
//	no token header            -> 401 Authentication required
//	cache hit                  -> allow, no verifier call
//	cache miss or unavailable  -> verify upstream
//	verifier valid             -> cache write, allow
//	verifier invalid or failed -> 401 Invalid token
func Turnstile(opts TurnstileOptions) gin.HandlerFunc {
	if opts.Cache == nil || opts.Verifier == nil {
		logger.Warn("Turnstile gate disabled: secret or cache URL not configured, all requests pass through")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token := c.GetHeader(TokenHeader)
		if token == "" {
			publishDecision(c, opts.EventBus, audit.Decision{
				Outcome: audit.OutcomeRejectMissing,
			})
			util.RespondWithError(c, http.StatusUnauthorized,
				"Authentication required",
				"X-Turnstile-Token header is required",
				gate_errors.ErrTokenMissing)
			return
		}

		cacheResult := opts.Cache.Lookup(ctx, token)
		if cacheResult == db.Hit {
			publishDecision(c, opts.EventBus, audit.Decision{
				Outcome:     audit.OutcomeAllow,
				CacheResult: cacheResult.String(),
			})
			c.Next()
			return
		}

		// Miss and Unavailable both mean the token must be (re-)verified
		// upstream.
		remoteIP := clientIP(c)
		outcome := opts.Verifier.Verify(ctx, token, remoteIP)
		if outcome != turnstile.Valid {
			logger.Warn("Turnstile token verification failed",
				zap.String("outcome", outcome.String()),
				zap.String("ip", remoteIP))
			publishDecision(c, opts.EventBus, audit.Decision{
				Outcome:         audit.OutcomeRejectInvalid,
				ClientIP:        remoteIP,
				CacheResult:     cacheResult.String(),
				VerifierOutcome: outcome.String(),
			})
			util.RespondWithError(c, http.StatusUnauthorized,
				"Invalid token",
				"Turnstile token validation failed",
				gate_errors.ErrTokenInvalid)
			return
		}

		opts.Cache.MarkValid(ctx, token)
		publishDecision(c, opts.EventBus, audit.Decision{
			Outcome:         audit.OutcomeAllow,
			ClientIP:        remoteIP,
			CacheResult:     cacheResult.String(),
			VerifierOutcome: outcome.String(),
		})
		c.Next()
	}
}

// clientIP resolves a best-effort client IP for the verifier, first non-empty
// wins: the connection's remote address, then CF-Connecting-IP, then the
// first X-Forwarded-For entry.
func clientIP(c *gin.Context) string {
	if host, _, err := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr)); err == nil && host != "" {
		return host
	}
	if ip := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	return ""
}

func publishDecision(c *gin.Context, bus *util.EventBus, decision audit.Decision) {
	if bus == nil {
		return
	}
	decision.Timestamp = time.Now()
	decision.Method = c.Request.Method
	decision.Path = c.Request.URL.Path
	bus.Publish(context.WithoutCancel(c.Request.Context()), audit.EventGateDecision, decision)
}
