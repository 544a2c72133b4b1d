package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"smarteventscape/internal/redisclient"
	"smarteventscape/internal/service"
	"smarteventscape/internal/store"
	"smarteventscape/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	events        *service.EventService
	checkout      *service.CheckoutService
	confirmations *service.ConfirmationService
	auth          *service.AuthService
	store         *store.Store
	jwtSecret     string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	events *service.EventService,
	checkout *service.CheckoutService,
	confirmations *service.ConfirmationService,
	auth *service.AuthService,
	store *store.Store,
	jwtSecret string,
) *Handler {
	return &Handler{
		events:        events,
		checkout:      checkout,
		confirmations: confirmations,
		auth:          auth,
		store:         store,
		jwtSecret:     jwtSecret,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/register", h.register)
		v1.POST("/auth/login", h.login)

		v1.GET("/events", h.listEvents)
		v1.GET("/events/:id", h.getEvent)

		checkout := v1.Group("/checkout", OptionalAuth(h.jwtSecret))
		{
			checkout.POST("", h.startCheckout)
			checkout.GET("/:id", h.getCheckout)
			checkout.PUT("/:id", h.updateCheckout)
			checkout.POST("/:id/continue", h.continueCheckout)
			checkout.POST("/:id/back", h.backCheckout)
			checkout.POST("/:id/submit", h.submitCheckout)
		}

		v1.GET("/bookings/:reference", h.getBooking)
		v1.GET("/bookings/:reference/qr.png", h.downloadBookingQR)

		me := v1.Group("/me", RequireAuth(h.jwtSecret))
		{
			me.GET("/bookings", h.myBookings)
		}

		admin := v1.Group("/admin", RequireAuth(h.jwtSecret), RequireRole("admin"))
		{
			admin.GET("/events", h.adminListEvents)
			admin.POST("/events", h.adminCreateEvent)
			admin.PUT("/events/:id", h.adminUpdateEvent)
			admin.DELETE("/events/:id", h.adminDeleteEvent)
			admin.GET("/analytics", h.adminAnalytics)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listEvents(c *gin.Context) {
	events, err := h.events.ListEvents(c.Request.Context(), c.Query("category"), c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) getEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	display, err := h.events.GetDisplayEvent(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, display)
}

type startCheckoutRequest struct {
	EventID int64 `json:"event_id" binding:"required"`
}

func (h *Handler) startCheckout(c *gin.Context) {
	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.checkout.StartCheckout(c.Request.Context(), req.EventID, contextUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) getCheckout(c *gin.Context) {
	session, err := h.checkout.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) updateCheckout(c *gin.Context) {
	var req service.UpdateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	session, err := h.checkout.UpdateSession(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) continueCheckout(c *gin.Context) {
	session, err := h.checkout.Continue(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) backCheckout(c *gin.Context) {
	session, err := h.checkout.Back(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) submitCheckout(c *gin.Context) {
	resp, err := h.checkout.Submit(c.Request.Context(), c.Param("id"), h.confirmations)
	if err != nil {
		h.writeError(c, err)
		return
	}

	status := http.StatusCreated
	if !resp.Created {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

func (h *Handler) getBooking(c *gin.Context) {
	booking, err := h.store.GetBookingByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	display, err := h.events.GetDisplayEvent(c.Request.Context(), booking.EventID)
	if err != nil {
		if !errors.Is(err, service.ErrEventNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load event"})
			return
		}
		// The event row is gone; render the confirmation without event
		// fields rather than substituting data the user never booked.
		display = nil
	}

	c.JSON(http.StatusOK, h.confirmations.Render(booking, display))
}

func (h *Handler) downloadBookingQR(c *gin.Context) {
	booking, err := h.store.GetBookingByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}

	png, err := h.confirmations.PNG(booking.Reference)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+booking.Reference+`.png"`)
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) myBookings(c *gin.Context) {
	userID := contextUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	bookings, err := h.store.GetBookingsByUserID(c.Request.Context(), *userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) adminListEvents(c *gin.Context) {
	events, err := h.events.ListEventsRaw(c.Request.Context(), c.Query("category"), c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) adminCreateEvent(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	event, err := h.events.CreateEvent(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create event", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *Handler) adminUpdateEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	event, err := h.events.UpdateEvent(c.Request.Context(), id, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to update event", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handler) adminDeleteEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	if err := h.events.DeleteEvent(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Failed to delete event", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminAnalytics(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 {
		days = 30
	}

	ctx := c.Request.Context()

	summary, err := h.store.GetAnalyticsSummary(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
		return
	}
	daily, err := h.store.GetBookingsPerDay(ctx, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
		return
	}
	categories, err := h.store.GetRevenueByCategory(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
		return
	}
	top, err := h.store.GetTopEvents(ctx, 5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":          summary,
		"bookings_per_day": daily,
		"by_category":      categories,
		"top_events":       top,
	})
}

// writeError maps service errors onto HTTP statuses
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, redisclient.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCardDetailsRequired),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidTicketCount),
		errors.Is(err, service.ErrNotAtPaymentStep),
		errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionCompleted),
		errors.Is(err, service.ErrInsufficientSeats):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPaymentDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
