package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/infra/metrics"
	"marketplace-service/pkg/jwtutil"
	"marketplace-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	actorKey        = "actor"
)

// RequestID tags every request with an id and puts a logger carrying it into
// the request context.
func RequestID(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)
		c.Set("request_id", requestID)

		log := base.With(zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))
		c.Next()
	}
}

// AccessLog writes one line per request once the handler is done.
func AccessLog(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := logger.FromContext(c.Request.Context(), base)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// Metrics records request count and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Auth validates the bearer token and stores the caller as a domain.Actor.
func Auth(jwt *jwtutil.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context(), zap.NewNop())

		parts := strings.Fields(c.GetHeader("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthenticated",
				Message: "missing or malformed bearer token",
			})
			return
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			log.Warn("invalid token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthenticated",
				Message: "invalid or expired token",
			})
			return
		}

		actor := domain.Actor{ID: claims.UserID, Role: domain.Role(claims.Role)}
		switch actor.Role {
		case domain.RoleBuyer, domain.RoleFarmer, domain.RoleAdmin:
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthenticated",
				Message: "token carries an unknown role",
			})
			return
		}

		c.Set(actorKey, actor)
		withLog := log.With(zap.Uint64("user_id", actor.ID), zap.String("role", string(actor.Role)))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), withLog))
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	actor, _ := c.MustGet(actorKey).(domain.Actor)
	return actor
}
