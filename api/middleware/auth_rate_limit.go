package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/novatech/management-backend/api/responses"
	pkgerrors "github.com/novatech/management-backend/pkg/errors"
	"github.com/novatech/management-backend/pkg/logger"
	"github.com/novatech/management-backend/pkg/redis"
)

// maxThrottledBody caps how much of an auth body is buffered to find the email.
const maxThrottledBody = 64 << 10

// AuthRateLimitPolicy is the fixed-window budget for one auth endpoint, counted
// separately per client IP and per hashed email.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// scope renders the limiter key suffix, e.g. ip:login:10.0.0.1.
func (p AuthRateLimitPolicy) scope(dimension, value string) string {
	return fmt.Sprintf("%s:%s:%s", dimension, p.name, value)
}

type throttleCheck struct {
	dimension string
	value     string
	limit     int
}

// AuthRateLimit rejects with 429 once either the IP or the email budget is
// spent. Limiter failures surface as 503 rather than letting traffic through.
func AuthRateLimit(policy AuthRateLimitPolicy, limiter redis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var checks []throttleCheck
			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" {
					checks = append(checks, throttleCheck{dimension: "ip", value: ip, limit: policy.ipLimit})
				}
			}
			if policy.emailLimit > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxThrottledBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if email := normalizeEmail(extractEmail(body)); email != "" {
					checks = append(checks, throttleCheck{dimension: "email", value: hashValue(email), limit: policy.emailLimit})
				}
			}

			for _, check := range checks {
				allowed, count, err := limiter.FixedWindowAllow(ctx, policy.scope(check.dimension, check.value), int64(check.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					rejectThrottled(ctx, logg, w, policy, check, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectThrottled(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, check throttleCheck, count int64) {
	if logg != nil {
		fields := map[string]any{
			"policy":         policy.name,
			"scope":          check.dimension,
			"attempts":       count,
			"limit":          check.limit,
			"window_seconds": int(policy.window.Seconds()),
		}
		// Raw emails never reach the logs; the ip is logged as-is.
		if check.dimension == "email" {
			fields["email_hash"] = check.value
		} else {
			fields["ip"] = check.value
		}
		logg.Warn(logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Round(time.Second).Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
}

// clientIP trusts the first X-Forwarded-For hop, then X-Real-IP, then the socket.
func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
