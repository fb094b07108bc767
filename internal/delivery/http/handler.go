package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service *usecase.ProductService
	log     *zap.SugaredLogger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *usecase.ProductService, log *zap.SugaredLogger) *Handler {
	return &Handler{service: service, log: log}
}

// lookupRequest is the body of a product lookup. Profile and userId are
// both optional; an inline profile wins over a stored one.
type lookupRequest struct {
	Barcode string              `json:"barcode" binding:"required,barcode"`
	UserID  string              `json:"userId,omitempty"`
	Profile *domain.UserProfile `json:"profile,omitempty"`
}

type scorePayload struct {
	RulesScore        float64                   `json:"rulesScore"`
	PersonalizedScore float64                   `json:"personalizedScore"`
	Explanation       []domain.ExplanationEntry `json:"explanation"`
	Swaps             []domain.SwapCandidate    `json:"swaps,omitempty"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "nutriscan-backend",
		"version": "1.0.0",
	})
}

// LookupProduct resolves a barcode, scores it, and returns the product with
// its score record. An unresolvable barcode is a normal outcome, reported
// as {ok:true, notFound:true}.
func (h *Handler) LookupProduct(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "barcode must be a string of 4-14 digits"})
		return
	}

	var (
		result *usecase.LookupResult
		err    error
	)
	if req.Profile != nil {
		result, err = h.service.Lookup(c.Request.Context(), req.Barcode, req.Profile)
	} else if req.UserID != "" {
		result, err = h.service.LookupForUser(c.Request.Context(), req.Barcode, req.UserID)
	} else {
		result, err = h.service.Lookup(c.Request.Context(), req.Barcode, nil)
	}
	if err != nil {
		h.respondLookupError(c, req.Barcode, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"fromCache": result.FromCache,
		"product":   result.Product,
		"score": scorePayload{
			RulesScore:        result.Record.RulesScore,
			PersonalizedScore: result.Record.PersonalizedScore,
			Explanation:       result.Record.Explanation,
			Swaps:             result.Record.Swaps,
		},
	})
}

func (h *Handler) respondLookupError(c *gin.Context, barcode string, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusOK, gin.H{"ok": true, "notFound": true})
	case errors.Is(err, domain.ErrInvalidBarcode), errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrResolveTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"ok": false, "error": err.Error()})
	default:
		h.log.Errorw("lookup failed", "barcode", barcode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}

// SearchProducts queries the local product store.
func (h *Handler) SearchProducts(c *gin.Context) {
	query := c.Query("query")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	products, total, err := h.service.Search(c.Request.Context(), query, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		h.log.Errorw("search failed", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"products":   products,
		"totalCount": total,
	})
}

// SaveProfile stores or replaces a user's goal profile.
func (h *Handler) SaveProfile(c *gin.Context) {
	var profile domain.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "malformed profile body"})
		return
	}
	profile.UserID = c.Param("userId")

	if err := h.service.SaveProfile(c.Request.Context(), &profile); err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		h.log.Errorw("profile save failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": profile})
}

// GetProfile returns a user's stored goal profile.
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			c.JSON(http.StatusOK, gin.H{"ok": true, "notFound": true})
			return
		}
		h.log.Errorw("profile load failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": profile})
}

// GetScore returns the most recent persisted score record for a barcode.
func (h *Handler) GetScore(c *gin.Context) {
	record, err := h.service.LatestScore(c.Request.Context(), c.Param("barcode"), c.Query("userId"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCacheMiss):
			c.JSON(http.StatusOK, gin.H{"ok": true, "notFound": true})
		case errors.Is(err, domain.ErrInvalidBarcode):
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		default:
			h.log.Errorw("score load failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "score": record})
}
