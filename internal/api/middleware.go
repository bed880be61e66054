package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"alcyxob/blockcoach/internal/domain"
	"alcyxob/blockcoach/internal/metrics"
	"alcyxob/blockcoach/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
	ContextTokenKey    = "accessToken"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
// The token is validated by the auth service, which also rejects revoked tokens.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}
		tokenString := parts[1]

		claims, err := authService.ParseToken(c.Request.Context(), tokenString)
		if errors.Is(err, service.ErrInvalidToken) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		if err != nil {
			// the session store is unreachable; its error text stays in the log
			log.Errorf("auth: verify token for %s %s: %v", c.Request.Method, c.FullPath(), err)
			abortWithError(c, http.StatusServiceUnavailable, "Unable to verify the session, try again later")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil || !claims.Role.Valid() {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextUserRoleKey, claims.Role)
		c.Set(ContextTokenKey, tokenString)

		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, err := getUserRoleFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}

		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
	}
}

func getUserRoleFromContext(c *gin.Context) (domain.Role, error) {
	roleRaw, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleRaw.(domain.Role)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}

// actorFromContext builds the service-level caller from what AuthMiddleware stored.
// It aborts the request and returns false when the context is incomplete.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	idRaw, exists := c.Get(ContextUserIDKey)
	userID, ok := idRaw.(primitive.ObjectID)
	if !exists || !ok {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return service.Actor{}, false
	}
	role, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user role from token.")
		return service.Actor{}, false
	}
	return service.Actor{ID: userID, Role: role}, true
}

// RequestRateLimiter is the part of *redis_rate.Limiter the middleware needs.
type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit allows perMinute requests per client IP for the routes it wraps.
// A limiter failure lets the request through.
func RateLimit(limiter RequestRateLimiter, routerName string, perMinute int, instr *metrics.Instrumentation) gin.HandlerFunc {
	limit := redis_rate.PerMinute(perMinute)
	return func(c *gin.Context) {
		key := fmt.Sprintf("rl-%s||%s", routerName, c.ClientIP())
		res, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			log.Errorf("rate limiter [%s]: %s", routerName, err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if res.Allowed == 0 {
			if instr != nil {
				instr.CounterRateLimited.Inc()
			}
			seconds := int(res.RetryAfter / time.Second)
			c.Header("Retry-After", strconv.Itoa(seconds+1))
			abortWithError(c, http.StatusTooManyRequests, fmt.Sprintf("retry after %.1f seconds", res.RetryAfter.Seconds()))
			return
		}
		c.Next()
	}
}

// PanicRecovery turns a handler panic into a 500 and records it.
func PanicRecovery(instr *metrics.Instrumentation) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorf("panic serving %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, err, debug.Stack())
				if instr != nil {
					instr.CounterHandleRequestPanic.Inc()
				}
				abortWithError(c, http.StatusInternalServerError, "internal server error")
			}
		}()
		c.Next()
	}
}

// RequestMetrics records request counts and durations per matched route.
func RequestMetrics(instr *metrics.Instrumentation) gin.HandlerFunc {
	return func(c *gin.Context) {
		instr.GaugeRequests.Inc()
		defer instr.GaugeRequests.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		instr.HistRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		instr.CounterRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// LogRequest writes one logrus entry per request.
func LogRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		})
		if userID, ok := c.Get(ContextUserIDKey); ok {
			entry = entry.WithField("user", userID)
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("request failed")
		case len(c.Errors) > 0:
			entry.Warn(c.Errors.String())
		default:
			entry.Debug("request served")
		}
	}
}
