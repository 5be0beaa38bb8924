package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/valr-fintech/treasury-ledger/internal/apperrors"
	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
	portssvc "github.com/valr-fintech/treasury-ledger/internal/core/ports/services"
	"github.com/valr-fintech/treasury-ledger/internal/dto"
	"github.com/valr-fintech/treasury-ledger/internal/middleware"
)

// floatAccountHandler handles HTTP requests related to float accounts.
type floatAccountHandler struct {
	accountService portssvc.FloatAccountSvcFacade
}

// newFloatAccountHandler creates a new floatAccountHandler.
func newFloatAccountHandler(svc portssvc.FloatAccountSvcFacade) *floatAccountHandler {
	return &floatAccountHandler{accountService: svc}
}

// RegisterFloatAccountRoutes registers routes related to float accounts.
func RegisterFloatAccountRoutes(rg *gin.RouterGroup, svc portssvc.FloatAccountSvcFacade) {
	h := newFloatAccountHandler(svc)

	accounts := rg.Group("/float-accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:id", h.getAccount)
		accounts.PUT("/:id/status", h.updateStatus)
		accounts.GET("/:id/net-position", h.getNetPosition)
		accounts.GET("/:id/utilization", h.getUtilization)
	}
}

func (h *floatAccountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateFloatAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	operator := operatorID(c)
	logger.Info("Received request to create float account",
		slog.String("account_id", req.AccountID),
		slog.String("role", string(req.Role)))

	account, err := h.accountService.CreateAccount(c.Request.Context(), req, operator)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error creating float account", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrDuplicate):
			logger.Warn("Duplicate float account", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create float account in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create float account"})
		}
		return
	}

	logger.Info("Float account created successfully", slog.String("account_id", account.AccountID))
	c.JSON(http.StatusCreated, dto.ToFloatAccountResponse(account))
}

func (h *floatAccountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Float account not found"})
			return
		}
		logger.Error("Failed to get float account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve float account"})
		return
	}

	c.JSON(http.StatusOK, dto.ToFloatAccountResponse(account))
}

func (h *floatAccountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), limit, offset)
	if err != nil {
		logger.Error("Failed to list float accounts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list float accounts"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListFloatAccountResponse(accounts))
}

func (h *floatAccountHandler) updateStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	var req dto.UpdateAccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateStatus", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.UpdateStatus(c.Request.Context(), accountID, req.Status, operatorID(c))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Float account not found"})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Illegal status change", slog.String("error", err.Error()), slog.String("account_id", accountID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to update account status", slog.String("error", err.Error()), slog.String("account_id", accountID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update account status"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToFloatAccountResponse(account))
}

func (h *floatAccountHandler) getNetPosition(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	position, err := h.accountService.GetNetPosition(c.Request.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Float account not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to get net position", slog.String("error", err.Error()), slog.String("account_id", accountID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve net position"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToNetPositionResponse(position))
}

func (h *floatAccountHandler) getUtilization(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("id")

	side := domain.BalanceSide(c.DefaultQuery("side", string(domain.SupplierSide)))
	if side != domain.SupplierSide && side != domain.MerchantSide {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be SUPPLIER or MERCHANT"})
		return
	}

	utilization, err := h.accountService.GetUtilization(c.Request.Context(), accountID, side)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Float account not found"})
			return
		}
		logger.Error("Failed to get utilization", slog.String("error", err.Error()), slog.String("account_id", accountID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve utilization"})
		return
	}

	c.JSON(http.StatusOK, dto.UtilizationResponse{
		AccountID:             accountID,
		Side:                  side,
		UtilizationPercentage: utilization,
	})
}
