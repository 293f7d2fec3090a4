package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"gocatalog/internal/api/response"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
)

// RateLimiter limita cada IP a limit requisições por janela fixa de duration.
// Falhas do cache deixam a requisição passar.
func RateLimiter(client cache.Client, limit int, duration time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip
			ctx := r.Context()

			count, err := client.Incr(ctx, key)
			if err != nil {
				log.Warn("Rate limiter indisponível; requisição liberada.", map[string]interface{}{"error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := client.Expire(ctx, key, duration); err != nil {
					log.Warn("Falha ao definir expiração do rate limit.", map[string]interface{}{"key": key, "error": err.Error()})
				}
			}

			remaining := int64(limit) - count
			if remaining < 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(duration.Seconds())))
				w.Header().Set("X-RateLimit-Remaining", "0")
				response.Error(w, r, log, apperror.NewRateLimitedError("tente novamente mais tarde."))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}
