package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/owningthelook/backend/internal/domain"
	"github.com/owningthelook/backend/internal/infrastructure/affiliate"
	"github.com/owningthelook/backend/internal/usecase"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// SessionStore keeps flow sessions between requests
type SessionStore interface {
	NewID() string
	Put(id string, s *usecase.Session)
	Get(id string) (*usecase.Session, error)
	Delete(id string) error
}

// ProxyObserver counts search proxy responses
type ProxyObserver interface {
	ObserveProxyRequest(network string, status int)
}

// Services holds the dependencies of the HTTP handlers. Nil services make the
// matching endpoints answer 501.
type Services struct {
	Analyzer usecase.Analyzer
	Matcher  usecase.MatchSearcher
	Proxy    domain.ProviderFetcher
	Cropper  domain.ImageCropper
	Sessions SessionStore
	Metrics  ProxyObserver
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	services Services
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services) *Handler {
	return &Handler{services: services}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "owningthelook-backend",
		"version": Version,
	})
}

// Search forwards a product search to one affiliate network and returns its
// body untouched
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("query")
	network := c.Query("network")
	if query == "" || network == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query or network parameter"})
		return
	}
	if h.services.Proxy == nil {
		notConfigured(c, "search proxy")
		return
	}

	body, err := h.services.Proxy.Fetch(c.Request.Context(), network, query)
	status := http.StatusOK
	defer func() { h.observeProxy(network, status) }()

	if err != nil {
		var upstream *affiliate.UpstreamError
		switch {
		case errors.As(err, &upstream):
			status = upstream.StatusCode
			c.JSON(status, gin.H{"error": upstream.Error(), "details": upstream.Body})
		case errors.Is(err, domain.ErrUnsupportedNetwork):
			status = http.StatusInternalServerError
			c.JSON(status, gin.H{"error": "unsupported network: " + network, "network": network})
		case errors.Is(err, domain.ErrProviderNotConfigured):
			status = http.StatusInternalServerError
			c.JSON(status, gin.H{"error": network + " credentials not configured", "network": network})
		default:
			log.Printf("[Proxy] %s search failed: %v", network, err)
			status = http.StatusInternalServerError
			c.JSON(status, gin.H{"error": err.Error(), "network": network})
		}
		return
	}

	c.Data(status, "application/json", body)
}

func (h *Handler) observeProxy(network string, status int) {
	if h.services.Metrics != nil {
		h.services.Metrics.ObserveProxyRequest(networkLabel(network), status)
	}
}

// UnknownNetwork labels proxy requests for networks outside affiliate.Networks
const UnknownNetwork = "unknown"

// networkLabel keeps client-supplied network names out of metric labels
func networkLabel(network string) string {
	if slices.Contains(affiliate.Networks, network) {
		return network
	}
	return UnknownNetwork
}

// analyzeRequest is the body of an analyze call
type analyzeRequest struct {
	Image string `json:"image" binding:"required"`
}

// Analyze classifies a photo into garments
func (h *Handler) Analyze(c *gin.Context) {
	if h.services.Analyzer == nil {
		notConfigured(c, "analysis")
		return
	}

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.services.Analyzer.Analyze(c.Request.Context(), req.Image)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Crop crops an image to a percentage rectangle without a session
func (h *Handler) Crop(c *gin.Context) {
	if h.services.Cropper == nil {
		notConfigured(c, "crop")
		return
	}

	var req domain.CropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !req.Rect.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid crop rectangle: %+v", req.Rect)})
		return
	}

	src, err := domain.DecodeDataURL(req.Image)
	if err != nil {
		respondError(c, err)
		return
	}

	out, err := usecase.ConfirmCrop(req.Rect, src, h.services.Cropper)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image": domain.EncodeDataURL(out.MimeType, out.Data)})
}

// Matches runs the aggregate product search for one item
func (h *Handler) Matches(c *gin.Context) {
	if h.services.Matcher == nil {
		notConfigured(c, "product search")
		return
	}

	var req domain.MatchesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, h.services.Matcher.Respond(c.Request.Context(), req.Item, req.Broaden))
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrUnsupportedImage):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDegenerateCrop):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrVisionFailure),
		errors.Is(err, domain.ErrInvalidAnalysis):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrVisionNotConfigured):
		status = http.StatusInternalServerError
	default:
		log.Printf("[HTTP] Unexpected error: %v", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%v: %v", domain.ErrInvalidRequest, err)})
}

func notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusNotImplemented, gin.H{"error": what + " not configured"})
}

// waitSettled blocks until done closes or the request goes away
func waitSettled(ctx context.Context, done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}
