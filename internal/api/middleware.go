package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/cache"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/content"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/service"
)

const (
	ctxSessionID = "bellavista.session"
	ctxService   = "bellavista.service"
)

// RequestLogger logs one line per request through zap.
func RequestLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			l.Warn("request", fields...)
			return
		}
		l.Info("request", fields...)
	}
}

// Session binds the visitor's session cache to the request. Visitors without
// a valid session cookie get a new one, stored only once something is
// cached for it. An Authorization header on the request is forwarded on
// content writes.
func (h *Handler) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		var cc cache.Cache
		id, err := c.Cookie(h.cookie)
		if _, perr := uuid.Parse(id); err != nil || perr != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(h.cookie, id, 0, "/", "", false, true)
			cc = cache.NewLazy(h.sessions, id)
		} else {
			cc, err = h.sessions.Open(c.Request.Context(), id)
			if err != nil {
				h.logger.Warn("open session cache", zap.String("session", id), zap.Error(err))
			}
			if cc == nil {
				cc = cache.Nop{}
			}
		}
		svc := h.svc.ForSession(cc)
		if authz := c.GetHeader("Authorization"); authz != "" {
			svc = svc.Authenticated(content.AuthFunc(func(context.Context) (http.Header, error) {
				return http.Header{"Authorization": {authz}}, nil
			}))
		}

		c.Set(ctxSessionID, id)
		c.Set(ctxService, svc)
		c.Next()
	}
}

// service returns the session-bound service, or the shared one outside the
// session middleware.
func (h *Handler) service(c *gin.Context) *service.Service {
	if v, ok := c.Get(ctxService); ok {
		if svc, ok := v.(*service.Service); ok {
			return svc
		}
	}
	return h.svc
}
