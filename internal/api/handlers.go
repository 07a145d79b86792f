// Package api exposes the scheduler over HTTP with gin. Handlers parse and
// validate request bodies, delegate to the scheduler, and map domain errors
// to status codes.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/scheduler"
	"github.com/nutrisched/nutrisched/internal/types"
)

// Handlers contains the HTTP handlers for the scheduling API.
type Handlers struct {
	sched  *scheduler.Scheduler
	logger *slog.Logger
}

// NewHandlers creates handlers around a scheduler.
func NewHandlers(sched *scheduler.Scheduler, logger *slog.Logger) *Handlers {
	return &Handlers{sched: sched, logger: logger}
}

// ErrorResponse is the JSON body returned on any failure.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CreatePurchaseRequest is the body for POST /v1/purchases.
type CreatePurchaseRequest struct {
	ClientID           string `json:"client_id" binding:"required"`
	TotalPurchasedDays int    `json:"total_purchased_days" binding:"required,gt=0"`
	AllowedFreezeDays  int    `json:"allowed_freeze_days" binding:"gte=0"`
	ExpectedStartDate  string `json:"expected_start_date,omitempty" binding:"omitempty,isodate"`
	ExpectedEndDate    string `json:"expected_end_date,omitempty" binding:"omitempty,isodate"`
}

// CreatePhaseRequest is the body for POST /v1/phases.
type CreatePhaseRequest struct {
	PurchaseID       string `json:"purchase_id" binding:"required"`
	StartDate        string `json:"start_date" binding:"required,isodate"`
	DurationDays     int    `json:"duration_days" binding:"required,gt=0"`
	Title            string `json:"title,omitempty"`
	ParentPurchaseID string `json:"parent_purchase_id,omitempty"`
}

// PauseRequest is the body for POST /v1/phases/:id/pause.
type PauseRequest struct {
	PauseDays int `json:"pause_days" binding:"gte=0"`
}

// ExtendRequest is the body for POST /v1/phases/:id/extend.
type ExtendRequest struct {
	NewStartDate string `json:"new_start_date" binding:"required,isodate"`
}

// FreezeRequest is the body for POST /v1/phases/:id/freeze and unfreeze.
type FreezeRequest struct {
	Dates []string `json:"dates" binding:"required,min=1,dive,isodate"`
}

// DuplicateRequest is the body for POST /v1/phases/:id/duplicate.
type DuplicateRequest struct {
	StartDate string `json:"start_date" binding:"required,isodate"`
}

// QuotaResponse is the body for GET /v1/phases/:id/quota.
type QuotaResponse struct {
	RemainingFreezeDays int `json:"remaining_freeze_days"`
	AllowedFreezeDays   int `json:"allowed_freeze_days"`
}

// ExtendResponse reports every phase the cascade moved.
type ExtendResponse struct {
	ChangedPhases []*types.Phase `json:"changed_phases"`
}

// HandleCreatePurchase handles POST /v1/purchases.
func (h *Handlers) HandleCreatePurchase(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCreatePurchase")

	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	schedReq := scheduler.PurchaseRequest{
		ClientID:           req.ClientID,
		TotalPurchasedDays: req.TotalPurchasedDays,
		AllowedFreezeDays:  req.AllowedFreezeDays,
	}
	if req.ExpectedStartDate != "" {
		d, err := dates.ParseISO(req.ExpectedStartDate)
		if err != nil {
			badRequest(c, err)
			return
		}
		schedReq.ExpectedStartDate = &d
	}
	if req.ExpectedEndDate != "" {
		d, err := dates.ParseISO(req.ExpectedEndDate)
		if err != nil {
			badRequest(c, err)
			return
		}
		schedReq.ExpectedEndDate = &d
	}

	purchase, _, err := h.sched.CreatePurchase(c.Request.Context(), schedReq)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("purchase created", "purchase_id", purchase.ID, "client_id", purchase.ClientID)
	c.JSON(http.StatusCreated, purchase)
}

// HandleGetPurchase handles GET /v1/purchases/:id.
func (h *Handlers) HandleGetPurchase(c *gin.Context) {
	logger := h.requestLogger(c, "HandleGetPurchase")

	purchase, err := h.sched.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, purchase)
}

// HandleListPurchases handles GET /v1/clients/:clientID/purchases.
func (h *Handlers) HandleListPurchases(c *gin.Context) {
	logger := h.requestLogger(c, "HandleListPurchases")

	purchases, err := h.sched.ListPurchases(c.Request.Context(), c.Param("clientID"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	if purchases == nil {
		purchases = []*types.Purchase{}
	}
	c.JSON(http.StatusOK, purchases)
}

// HandleCreatePhase handles POST /v1/phases.
func (h *Handlers) HandleCreatePhase(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCreatePhase")

	var req CreatePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, err := dates.ParseISO(req.StartDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	phase, _, err := h.sched.CreatePhase(c.Request.Context(), scheduler.CreatePhaseRequest{
		PurchaseID:       req.PurchaseID,
		StartDate:        start,
		DurationDays:     req.DurationDays,
		Title:            req.Title,
		ParentPurchaseID: req.ParentPurchaseID,
	})
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("phase created", "phase_id", phase.ID, "start", phase.StartDate.String())
	c.JSON(http.StatusCreated, phase)
}

// HandleGetPhase handles GET /v1/phases/:id.
func (h *Handlers) HandleGetPhase(c *gin.Context) {
	logger := h.requestLogger(c, "HandleGetPhase")

	phase, err := h.sched.GetPhase(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, phase)
}

// HandlePause handles POST /v1/phases/:id/pause.
func (h *Handlers) HandlePause(c *gin.Context) {
	logger := h.requestLogger(c, "HandlePause")

	var req PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	phase, _, err := h.sched.Pause(c.Request.Context(), c.Param("id"), req.PauseDays)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("phase paused", "phase_id", phase.ID, "pause_days", req.PauseDays)
	c.JSON(http.StatusOK, phase)
}

// HandleResume handles POST /v1/phases/:id/resume.
func (h *Handlers) HandleResume(c *gin.Context) {
	logger := h.requestLogger(c, "HandleResume")

	phase, _, err := h.sched.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("phase resumed", "phase_id", phase.ID)
	c.JSON(http.StatusOK, phase)
}

// HandleExtend handles POST /v1/phases/:id/extend.
func (h *Handlers) HandleExtend(c *gin.Context) {
	logger := h.requestLogger(c, "HandleExtend")

	var req ExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	newStart, err := dates.ParseISO(req.NewStartDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	changed, _, err := h.sched.Extend(c.Request.Context(), c.Param("id"), newStart)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	if changed == nil {
		changed = []*types.Phase{}
	}

	logger.Info("phase extended", "phase_id", c.Param("id"), "phases_moved", len(changed))
	c.JSON(http.StatusOK, ExtendResponse{ChangedPhases: changed})
}

// HandleFreeze handles POST /v1/phases/:id/freeze.
func (h *Handlers) HandleFreeze(c *gin.Context) {
	logger := h.requestLogger(c, "HandleFreeze")

	dts, ok := h.bindDates(c)
	if !ok {
		return
	}

	phase, _, err := h.sched.Freeze(c.Request.Context(), c.Param("id"), dts)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("phase frozen", "phase_id", phase.ID, "days", len(dts))
	c.JSON(http.StatusOK, phase)
}

// HandleUnfreeze handles POST /v1/phases/:id/unfreeze.
func (h *Handlers) HandleUnfreeze(c *gin.Context) {
	logger := h.requestLogger(c, "HandleUnfreeze")

	dts, ok := h.bindDates(c)
	if !ok {
		return
	}

	phase, _, err := h.sched.Unfreeze(c.Request.Context(), c.Param("id"), dts)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("phase unfrozen", "phase_id", phase.ID, "days", len(dts))
	c.JSON(http.StatusOK, phase)
}

// HandleCancel handles POST /v1/phases/:id/cancel.
func (h *Handlers) HandleCancel(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCancel")

	phase, _, err := h.sched.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("phase cancelled", "phase_id", phase.ID)
	c.JSON(http.StatusOK, phase)
}

// HandleDuplicate handles POST /v1/phases/:id/duplicate.
func (h *Handlers) HandleDuplicate(c *gin.Context) {
	logger := h.requestLogger(c, "HandleDuplicate")

	var req DuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	start, err := dates.ParseISO(req.StartDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	phase, _, err := h.sched.Duplicate(c.Request.Context(), c.Param("id"), start)
	if err != nil {
		h.writeError(c, logger, err)
		return
	}

	logger.Info("phase duplicated", "source_id", c.Param("id"), "phase_id", phase.ID)
	c.JSON(http.StatusCreated, phase)
}

// HandleQuota handles GET /v1/phases/:id/quota.
func (h *Handlers) HandleQuota(c *gin.Context) {
	logger := h.requestLogger(c, "HandleQuota")

	remaining, allowed, err := h.sched.FreezeQuota(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, QuotaResponse{
		RemainingFreezeDays: remaining,
		AllowedFreezeDays:   allowed,
	})
}

// HandleChain handles GET /v1/clients/:clientID/chain.
func (h *Handlers) HandleChain(c *gin.Context) {
	logger := h.requestLogger(c, "HandleChain")

	chain, err := h.sched.Chain(c.Request.Context(), c.Param("clientID"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	if chain == nil {
		chain = []*types.Phase{}
	}
	c.JSON(http.StatusOK, chain)
}

// HandleCurrent handles GET /v1/clients/:clientID/current.
func (h *Handlers) HandleCurrent(c *gin.Context) {
	logger := h.requestLogger(c, "HandleCurrent")

	view, err := h.sched.CurrentView(c.Request.Context(), c.Param("clientID"))
	if err != nil {
		h.writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// HandleHealthz handles GET /healthz.
func (h *Handlers) HandleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) bindDates(c *gin.Context) ([]dates.Date, bool) {
	var req FreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return nil, false
	}
	dts := make([]dates.Date, 0, len(req.Dates))
	for _, s := range req.Dates {
		d, err := dates.ParseISO(s)
		if err != nil {
			badRequest(c, err)
			return nil, false
		}
		dts = append(dts, d)
	}
	return dts, true
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	return h.logger.With("request_id", getOrCreateRequestID(c), "handler", handler)
}

func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
}

// writeError maps domain errors to HTTP status codes.
func (h *Handlers) writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"

	var (
		notFound  *types.NotFoundError
		allowErr  *types.AllowanceExceededError
		quotaErr  *types.QuotaExceededError
		overlap   *types.OverlapError
		window    *types.OutOfWindowError
		badDate   *types.InvalidDateError
		notFrozen *types.NotFrozenError
		badRange  *dates.InvalidRangeError
	)
	switch {
	case errors.As(err, &notFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &allowErr):
		status, code = http.StatusUnprocessableEntity, "ALLOWANCE_EXCEEDED"
	case errors.As(err, &quotaErr):
		status, code = http.StatusUnprocessableEntity, "FREEZE_QUOTA_EXCEEDED"
	case errors.As(err, &overlap):
		status, code = http.StatusConflict, "PHASE_OVERLAP"
	case errors.As(err, &window):
		status, code = http.StatusUnprocessableEntity, "OUT_OF_WINDOW"
	case errors.As(err, &badDate):
		status, code = http.StatusBadRequest, "INVALID_DATE"
	case errors.As(err, &notFrozen):
		status, code = http.StatusBadRequest, "NOT_FROZEN"
	case errors.As(err, &badRange):
		status, code = http.StatusBadRequest, "INVALID_RANGE"
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Warn("request rejected", "error", err, "status", status)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
