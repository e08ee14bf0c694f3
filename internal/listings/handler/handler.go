package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"property_portal_backend/internal/listings/repository"
	"property_portal_backend/internal/listings/transport"
	"property_portal_backend/internal/matching"
	"property_portal_backend/platform/httpkit"
	"property_portal_backend/platform/validator"
)

// MatchScorer scores a listing against buyer preferences.
type MatchScorer interface {
	Score(ctx context.Context, prefs matching.BuyerPreferences, listing matching.ListingAttributes) matching.MatchResult
}

// DraftService runs analysis and applies manual overrides on drafts.
type DraftService interface {
	GetDraft(ctx context.Context, tenantID, draftID uuid.UUID) (repository.ListingDraft, map[string]string, error)
	RunDraftAnalysis(ctx context.Context, tenantID, draftID uuid.UUID) (repository.DraftAnalysis, error)
	ApplyOverrides(ctx context.Context, tenantID, draftID uuid.UUID, overrides repository.DraftOverrides) (repository.ListingDraft, error)
}

// ViewRecorder stores property views.
type ViewRecorder interface {
	OnPropertyViewed(ctx context.Context, tenantID uuid.UUID, buyerSessionID *uuid.UUID, listingID uuid.UUID, metrics repository.ViewMetrics) (uuid.UUID, error)
}

// AnalysisEnqueuer schedules draft analysis out of band.
type AnalysisEnqueuer interface {
	EnqueueDraftAnalysis(ctx context.Context, tenantID, draftID uuid.UUID) error
}

// Handler handles HTTP requests for matching, drafts and views.
type Handler struct {
	scorer   MatchScorer
	drafts   DraftService
	views    ViewRecorder
	enqueuer AnalysisEnqueuer
	val      *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidDraftID   = "invalid draft ID"
	msgInvalidListingID = "invalid listing ID"
)

// New creates a new listings handler.
func New(scorer MatchScorer, drafts DraftService, views ViewRecorder, val *validator.Validator) *Handler {
	return &Handler{scorer: scorer, drafts: drafts, views: views, val: val}
}

// SetAnalysisEnqueuer enables ?async=true on the analyze endpoint.
func (h *Handler) SetAnalysisEnqueuer(enqueuer AnalysisEnqueuer) {
	h.enqueuer = enqueuer
}

// ScoreMatch scores a listing against buyer preferences.
// POST /api/v1/matching/score
func (h *Handler) ScoreMatch(c *gin.Context) {
	var req transport.ScoreMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	if _, ok := httpkit.MustGetTenantID(c); !ok {
		return
	}

	prefs, listing := req.ToDomain()
	httpkit.OK(c, h.scorer.Score(c.Request.Context(), prefs, listing))
}

// GetDraft returns a draft with signed photo URLs.
// GET /api/v1/drafts/:id
func (h *Handler) GetDraft(c *gin.Context) {
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDraftID, nil)
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	draft, urls, err := h.drafts.GetDraft(c.Request.Context(), tenantID, draftID)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := transport.NewDraftResponse(draft)
	resp.PhotoURLs = urls
	httpkit.OK(c, resp)
}

// AnalyzeDraft runs photo analysis for a draft, or queues it with ?async=true.
// POST /api/v1/drafts/:id/analyze
func (h *Handler) AnalyzeDraft(c *gin.Context) {
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDraftID, nil)
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	async, _ := strconv.ParseBool(c.Query("async"))
	if async {
		if h.enqueuer == nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "async analysis is not available", nil)
			return
		}
		if err := h.enqueuer.EnqueueDraftAnalysis(c.Request.Context(), tenantID, draftID); err != nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "failed to queue analysis", nil)
			return
		}
		httpkit.JSON(c, http.StatusAccepted, transport.AnalysisQueuedResponse{DraftID: draftID, Status: "queued"})
		return
	}

	result, err := h.drafts.RunDraftAnalysis(c.Request.Context(), tenantID, draftID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ApplyOverrides stores manual corrections on an analyzed draft.
// PATCH /api/v1/drafts/:id/overrides
func (h *Handler) ApplyOverrides(c *gin.Context) {
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDraftID, nil)
		return
	}

	var req transport.ApplyOverridesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	draft, err := h.drafts.ApplyOverrides(c.Request.Context(), tenantID, draftID, req.ToDomain())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.NewDraftResponse(draft))
}

// RecordView stores a property view and schedules match scoring.
// POST /api/v1/listings/:id/views
func (h *Handler) RecordView(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidListingID, nil)
		return
	}

	var req transport.RecordViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c)
	if !ok {
		return
	}

	viewID, err := h.views.OnPropertyViewed(c.Request.Context(), tenantID, req.BuyerSessionID, listingID, req.Metrics())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.RecordViewResponse{ViewID: viewID})
}
