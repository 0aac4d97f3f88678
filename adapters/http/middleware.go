package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/career-compass/pkg/apperror"
	"github.com/khoahotran/career-compass/pkg/auth"
	"github.com/khoahotran/career-compass/pkg/logger"
)

const (
	GinContextKeySubject = "subject"
)

// ErrorMiddleware renders the last error attached with c.Error as the
// classified JSON failure body.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		status := apperror.ToHTTPStatus(appErr)

		fields := []zap.Field{
			zap.String("path", c.FullPath()),
			zap.String("kind", apperror.Kind(appErr)),
			zap.Int("status", status),
		}
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", appErr, fields...)
		} else {
			log.Warn("Request rejected", append(fields, zap.String("error", appErr.Error()))...)
		}

		if !c.Writer.Written() {
			c.JSON(status, appErr.ToJSON())
		}
	}
}

func AuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			_ = c.Error(apperror.NewUnauthorized("Authorization header is required", nil))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			_ = c.Error(apperror.NewUnauthorized("Invalid token format", nil))
			c.Abort()
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			log.Debug("Token rejected", zap.Error(err))
			_ = c.Error(apperror.NewUnauthorized("Invalid or expired token", err))
			c.Abort()
			return
		}

		c.Set(GinContextKeySubject, claims.Subject)

		c.Next()
	}
}

func GetSubjectFromGinContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(GinContextKeySubject)
	if !ok {
		return "", false
	}
	subject, ok := v.(string)
	return subject, ok
}

// authorizeProfile allows the call when auth is off or the token subject owns externalID.
func authorizeProfile(c *gin.Context, externalID string) error {
	subject, ok := GetSubjectFromGinContext(c)
	if !ok {
		return nil
	}
	if subject != strings.TrimSpace(externalID) {
		return apperror.NewPermissionDenied("token subject does not match external_profile_id")
	}
	return nil
}

func CORSMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
