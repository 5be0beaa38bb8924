package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
	portssvc "github.com/valr-fintech/treasury-ledger/internal/core/ports/services"
	"github.com/valr-fintech/treasury-ledger/internal/dto"
	"github.com/valr-fintech/treasury-ledger/internal/middleware"
)

// settlementHandler handles HTTP requests related to settlements.
type settlementHandler struct {
	settlementService portssvc.SettlementSvcFacade
}

// newSettlementHandler creates a new settlementHandler.
func newSettlementHandler(svc portssvc.SettlementSvcFacade) *settlementHandler {
	return &settlementHandler{settlementService: svc}
}

// RegisterSettlementRoutes registers routes related to settlements. The rate
// limiting middleware is applied to the mutation endpoints only.
func RegisterSettlementRoutes(rg *gin.RouterGroup, svc portssvc.SettlementSvcFacade, limit gin.HandlerFunc) {
	h := newSettlementHandler(svc)

	accounts := rg.Group("/float-accounts/:id/settlements")
	{
		accounts.POST("", limit, h.applySettlement)
		accounts.GET("", h.listSettlements)
	}

	rg.GET("/float-accounts/:id/reconciliation", h.reconcileAccount)

	settlements := rg.Group("/settlements")
	{
		settlements.GET("/:id", h.getSettlement)
		settlements.POST("/:id/dispatch", limit, h.dispatchSettlement)
		settlements.POST("/:id/complete", limit, h.completeSettlement)
		settlements.POST("/:id/fail", limit, h.failSettlement)
		settlements.POST("/:id/cancel", limit, h.cancelSettlement)
		settlements.POST("/:id/retry", limit, h.retrySettlement)
	}
}

// mapSettlementError translates service errors onto HTTP responses.
func mapSettlementError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("State conflict", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrIntegrity):
		logger.Error("Data integrity violation", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Data integrity violation detected"})
	default:
		logger.Error("Settlement operation failed", slog.String("action", action), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

func (h *settlementHandler) applySettlement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	var req dto.ApplySettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ApplySettlement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlementService.ApplySettlement(c.Request.Context(), accountID, req, operatorID(c))
	if err != nil {
		mapSettlementError(c, err, "apply settlement")
		return
	}

	logger.Info("Settlement applied",
		slog.String("settlement_id", settlement.SettlementID),
		slog.String("account_id", accountID))
	c.JSON(http.StatusCreated, dto.ToSettlementResponse(settlement))
}

func (h *settlementHandler) getSettlement(c *gin.Context) {
	settlement, err := h.settlementService.GetSettlementByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapSettlementError(c, err, "retrieve settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

func (h *settlementHandler) listSettlements(c *gin.Context) {
	accountID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	settlements, err := h.settlementService.ListSettlementsByAccount(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		mapSettlementError(c, err, "list settlements")
		return
	}
	c.JSON(http.StatusOK, dto.ToListSettlementResponse(settlements))
}

func (h *settlementHandler) reconcileAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	report, err := h.settlementService.ReconcileAccount(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrIntegrity) && report != nil {
			logger.Error("Reconciliation found balance drift",
				slog.String("account_id", accountID))
			c.JSON(http.StatusConflict, gin.H{
				"error":  "balance drift detected",
				"report": dto.ToReconciliationResponse(report),
			})
			return
		}
		mapSettlementError(c, err, "reconcile account")
		return
	}
	c.JSON(http.StatusOK, dto.ToReconciliationResponse(report))
}

func (h *settlementHandler) dispatchSettlement(c *gin.Context) {
	settlement, err := h.settlementService.DispatchSettlement(c.Request.Context(), c.Param("id"), operatorID(c))
	if err != nil {
		mapSettlementError(c, err, "dispatch settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

func (h *settlementHandler) completeSettlement(c *gin.Context) {
	settlement, err := h.settlementService.CompleteSettlement(c.Request.Context(), c.Param("id"), operatorID(c))
	if err != nil {
		mapSettlementError(c, err, "complete settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

func (h *settlementHandler) failSettlement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.FailSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for FailSettlement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	settlement, err := h.settlementService.FailSettlement(c.Request.Context(), c.Param("id"), req.ErrorCode, req.ErrorMessage, operatorID(c))
	if err != nil {
		mapSettlementError(c, err, "fail settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

func (h *settlementHandler) cancelSettlement(c *gin.Context) {
	settlement, err := h.settlementService.CancelSettlement(c.Request.Context(), c.Param("id"), operatorID(c))
	if err != nil {
		mapSettlementError(c, err, "cancel settlement")
		return
	}
	c.JSON(http.StatusOK, dto.ToSettlementResponse(settlement))
}

func (h *settlementHandler) retrySettlement(c *gin.Context) {
	settlement, err := h.settlementService.RetrySettlement(c.Request.Context(), c.Param("id"), operatorID(c))
	if err != nil {
		mapSettlementError(c, err, "retry settlement")
		return
	}
	c.JSON(http.StatusCreated, dto.ToSettlementResponse(settlement))
}
