package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/cache"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/content"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/geo"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/geocode"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/service"
	"github.com/bellavista-care-home/bellavista-carehome-sub000/pkg/models"
)

// DefaultSessionCookie names the session cookie when none is configured.
const DefaultSessionCookie = "bv_session"

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	svc      *service.Service
	sessions cache.Sessions
	cookie   string
	checks   map[string]HealthCheck
	logger   *zap.Logger
}

func NewHandler(svc *service.Service, sessions cache.Sessions, logger *zap.Logger) *Handler {
	if sessions == nil {
		sessions = cache.NewMemorySessions(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:      svc,
		sessions: sessions,
		cookie:   DefaultSessionCookie,
		checks:   map[string]HealthCheck{},
		logger:   logger,
	}
}

// SetSessionCookie sets the cookie name. The cookie lasts for the browser
// session; the server side expires idle sessions on its own.
func (h *Handler) SetSessionCookie(name string) {
	if name != "" {
		h.cookie = name
	}
}

func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1", h.Session())
	{
		v1.GET("/homes", h.ListHomes)
		v1.GET("/homes/:id", h.GetHome)
		v1.GET("/homes/:id/care", h.CareSections)
		v1.POST("/homes", h.CreateHome)
		v1.PUT("/homes/:id", h.UpdateHome)
		v1.DELETE("/homes/:id", h.DeleteHome)

		v1.GET("/news", h.ListNews)
		v1.GET("/news/:id", h.GetNews)
		v1.POST("/news", h.CreateNews)
		v1.PUT("/news/:id", h.UpdateNews)
		v1.DELETE("/news/:id", h.DeleteNews)

		v1.GET("/reviews", h.ListReviews)
		v1.POST("/reviews", h.SubmitReview)
		v1.DELETE("/reviews/:id", h.DeleteReview)

		v1.GET("/newsletters", h.ListNewsletters)
		v1.POST("/newsletter-subscriptions", h.Subscribe)
		v1.DELETE("/newsletter-subscriptions/:id", h.Unsubscribe)

		v1.POST("/care-enquiries", h.CareEnquiry)

		v1.GET("/locations/nearest", h.Nearest)

		v1.DELETE("/session", h.EndSession)
	}
}

// ListHomes: GET /v1/homes
func (h *Handler) ListHomes(c *gin.Context) {
	homes := h.service(c).Homes(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{"count": len(homes)},
		"data": homes,
	})
}

// GetHome: GET /v1/homes/:id
func (h *Handler) GetHome(c *gin.Context) {
	home := h.service(c).Home(c.Request.Context(), c.Param("id"))
	if home == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "home not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": home})
}

// CareSections: GET /v1/homes/:id/care
func (h *Handler) CareSections(c *gin.Context) {
	sections := h.service(c).CareSections(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{"count": len(sections)},
		"data": sections,
	})
}

// CreateHome: POST /v1/homes
func (h *Handler) CreateHome(c *gin.Context) {
	var in models.Home
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	out, err := h.service(c).Content().CreateHome(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": out})
}

// UpdateHome: PUT /v1/homes/:id
func (h *Handler) UpdateHome(c *gin.Context) {
	var in models.Home
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	out, err := h.service(c).Content().UpdateHome(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// DeleteHome: DELETE /v1/homes/:id
func (h *Handler) DeleteHome(c *gin.Context) {
	out, err := h.service(c).Content().DeleteHome(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// ListNews: GET /v1/news?category=Events&location=barry&limit=10
// Without limit every matching item is returned.
func (h *Handler) ListNews(c *gin.Context) {
	f := service.NewsFilter{
		Category: c.Query("category"),
		Location: c.Query("location"),
	}
	if s := c.Query("limit"); s != "" {
		f.Limit = parseLimit(s)
	}
	items := h.service(c).News(c.Request.Context(), f)
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{
			"category": f.Category,
			"location": f.Location,
			"count":    len(items),
			"limit":    f.Limit,
		},
		"data": items,
	})
}

// GetNews: GET /v1/news/:id
func (h *Handler) GetNews(c *gin.Context) {
	item := h.service(c).NewsItem(c.Request.Context(), c.Param("id"))
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "news item not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

// CreateNews: POST /v1/news
// Image and gallery entries may be data URIs; they are uploaded as files.
func (h *Handler) CreateNews(c *gin.Context) {
	var in models.NewsItem
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	out, err := h.service(c).Content().CreateNewsItem(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": out})
}

// UpdateNews: PUT /v1/news/:id
func (h *Handler) UpdateNews(c *gin.Context) {
	var in models.NewsItem
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	out, err := h.service(c).Content().UpdateNewsItem(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// DeleteNews: DELETE /v1/news/:id
func (h *Handler) DeleteNews(c *gin.Context) {
	id := c.Param("id")
	if err := h.service(c).Content().DeleteNewsItem(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

// ListReviews: GET /v1/reviews?location=Barry
// Unlike other reads a failure is reported, so pages can show their own
// fallback reviews.
func (h *Handler) ListReviews(c *gin.Context) {
	reviews, err := h.service(c).Reviews(c.Request.Context(), c.Query("location"))
	if err != nil {
		h.logger.Warn("list reviews failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": service.GenericFailureMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{"count": len(reviews)},
		"data": reviews,
	})
}

// SubmitReview: POST /v1/reviews
func (h *Handler) SubmitReview(c *gin.Context) {
	var in models.ReviewSubmission
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	out, err := h.service(c).Content().SubmitReview(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": out})
}

// DeleteReview: DELETE /v1/reviews/:id
func (h *Handler) DeleteReview(c *gin.Context) {
	id := c.Param("id")
	ok, err := h.service(c).Content().DeleteReview(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": ok})
}

// ListNewsletters: GET /v1/newsletters
func (h *Handler) ListNewsletters(c *gin.Context) {
	items := h.service(c).Newsletters(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{"count": len(items)},
		"data": items,
	})
}

// Subscribe: POST /v1/newsletter-subscriptions
// The server's message is passed on as is.
func (h *Handler) Subscribe(c *gin.Context) {
	var in models.Subscription
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	res, err := h.service(c).Content().SubscribeToNewsletter(c.Request.Context(), in)
	if err != nil {
		h.writeNewsletterError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": res, "message": res.Message})
}

// Unsubscribe: DELETE /v1/newsletter-subscriptions/:id
func (h *Handler) Unsubscribe(c *gin.Context) {
	res, err := h.service(c).Content().UnsubscribeFromNewsletter(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeNewsletterError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res, "message": res.Message})
}

// CareEnquiry: POST /v1/care-enquiries
func (h *Handler) CareEnquiry(c *gin.Context) {
	var in models.CareEnquiry
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}
	msg, err := h.service(c).Content().SubmitCareEnquiry(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// Nearest: GET /v1/locations/nearest?lat=51.4&lon=-3.2 | ?postcode=CF62 6BD | ?geo_error=1
// geo_error carries the browser's position error code so the page can show
// the matching message.
func (h *Handler) Nearest(c *gin.Context) {
	q := c.Request.URL.Query()
	svc := h.service(c)

	if code := q.Get("geo_error"); code != "" {
		n, err := strconv.Atoi(code)
		if err != nil {
			n = -1
		}
		msg, _ := geo.UserMessage(geo.PositionError(n))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg})
		return
	}

	if pc := q.Get("postcode"); pc != "" {
		nearest, coords, err := svc.NearestByPostcode(c.Request.Context(), pc)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"meta": gin.H{
				"source":    "postcode",
				"postcode":  coords.Postcode,
				"latitude":  coords.Latitude,
				"longitude": coords.Longitude,
			},
			"data": nearest,
		})
		return
	}

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide lat and lon, or a postcode"})
		return
	}
	nearest, err := svc.NearestByCoordinates(lat, lon)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"meta": gin.H{"source": "coordinates"},
		"data": nearest,
	})
}

// EndSession: DELETE /v1/session
// Drops every cached entry of the caller's session.
func (h *Handler) EndSession(c *gin.Context) {
	id := c.GetString(ctxSessionID)
	if err := h.sessions.End(c.Request.Context(), id); err != nil {
		h.logger.Warn("end session", zap.String("session", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": service.GenericFailureMessage})
		return
	}
	c.SetCookie(h.cookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// Health: GET /healthz
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}

// writeError maps write and lookup failures to a status and the text shown
// to the visitor.
func (h *Handler) writeError(c *gin.Context, err error) {
	var ve *content.ValidationError
	var se *content.StatusError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, geocode.ErrInvalidPostcode), errors.Is(err, geo.ErrInvalidCoordinates):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.UserMessage(err)})
	case errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500:
		msg := se.Message
		if msg == "" {
			msg = service.GenericFailureMessage
		}
		c.JSON(se.StatusCode, gin.H{"error": msg})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": service.GenericFailureMessage})
	}
}

// writeNewsletterError is writeError, except that whatever the server said
// about a subscription reaches the visitor, whatever the status.
func (h *Handler) writeNewsletterError(c *gin.Context, err error) {
	var se *content.StatusError
	if errors.As(err, &se) && se.Message != "" && se.StatusCode >= http.StatusInternalServerError {
		h.logger.Warn("newsletter request rejected", zap.Int("status", se.StatusCode), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": se.Message})
		return
	}
	h.writeError(c, err)
}

// parseLimit ensures a sane integer limit, with bounds
func parseLimit(s string) int {
	l, err := strconv.Atoi(s)
	if err != nil || l <= 0 {
		return 10
	}
	if l > 200 {
		return 200
	}
	return l
}
