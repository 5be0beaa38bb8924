package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
	portssvc "github.com/valr-fintech/treasury-ledger/internal/core/ports/services"
	"github.com/valr-fintech/treasury-ledger/internal/dto"
	"github.com/valr-fintech/treasury-ledger/internal/middleware"
)

// feeHandler handles HTTP requests related to fee quoting.
type feeHandler struct {
	feeService portssvc.FeeSvcFacade
}

// newFeeHandler creates a new feeHandler.
func newFeeHandler(svc portssvc.FeeSvcFacade) *feeHandler {
	return &feeHandler{feeService: svc}
}

// RegisterFeeRoutes registers routes related to fees.
func RegisterFeeRoutes(rg *gin.RouterGroup, svc portssvc.FeeSvcFacade) {
	h := newFeeHandler(svc)

	fees := rg.Group("/fees")
	{
		fees.POST("/quote", h.quoteFee)
		fees.POST("/record", h.recordTransaction)
		fees.GET("/proxy-validation", h.quoteProxyValidation)
	}
}

func (h *feeHandler) quoteFee(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.QuoteFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for QuoteFee", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	breakdown, err := h.feeService.QuoteFee(c.Request.Context(), req.AccountID, req.TransactionClass, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConfiguration):
			// Negotiated pricing must be explicit; surface the refusal rather
			// than quoting a lower tier's rate.
			logger.Error("Fee quote refused on missing configuration", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to quote fee", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to quote fee"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToFeeBreakdownResponse(breakdown))
}

// recordTransaction is called by the payment pipeline after each processed
// transaction so the monthly volume count advances. Without it every quote
// would price at the first tier forever.
func (h *feeHandler) recordTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	count, err := h.feeService.RecordTransaction(c.Request.Context(), req.AccountID, req.TransactionClass, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to record transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record transaction"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.RecordTransactionResponse{
		AccountID:        req.AccountID,
		TransactionClass: req.TransactionClass,
		MonthlyCount:     count,
	})
}

func (h *feeHandler) quoteProxyValidation(c *gin.Context) {
	breakdown := h.feeService.QuoteProxyValidation()
	c.JSON(http.StatusOK, dto.ToFeeBreakdownResponse(breakdown))
}
