package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/valr-fintech/treasury-ledger/internal/core/domain"
)

// CreateFloatAccountRequest defines the data needed to onboard a float account.
type CreateFloatAccountRequest struct {
	AccountID   string             `json:"accountID" binding:"required"`
	DisplayName string             `json:"displayName" binding:"required"`
	Role        domain.AccountRole `json:"role" binding:"required,oneof=SUPPLIER_ONLY DUAL_ROLE"`

	MinimumBalance decimal.Decimal  `json:"minimumBalance"`
	MaximumBalance *decimal.Decimal `json:"maximumBalance"` // Optional, use pointer for nullability

	MaxSupplierBalance *decimal.Decimal `json:"maxSupplierBalance"`
	MaxMerchantBalance *decimal.Decimal `json:"maxMerchantBalance"`

	NetSettlementThreshold *decimal.Decimal `json:"netSettlementThreshold"` // Dual-role; defaults if omitted
	AutoSettlementEnabled  bool             `json:"autoSettlementEnabled"`

	SettlementPeriod domain.SettlementPeriod `json:"settlementPeriod" binding:"required,oneof=REAL_TIME DAILY WEEKLY MONTHLY"`
	FundingMethod    domain.FundingMethod    `json:"fundingMethod" binding:"required,oneof=PREFUNDED POSTPAID HYBRID"`

	BankAccountNumber string `json:"bankAccountNumber"`
	BankCode          string `json:"bankCode"`
	BankName          string `json:"bankName"`
}

// UpdateAccountStatusRequest changes an account's lifecycle status.
type UpdateAccountStatusRequest struct {
	Status domain.AccountStatus `json:"status" binding:"required,oneof=ACTIVE SUSPENDED CLOSED"`
}

// FloatAccountResponse defines the data returned for a float account.
type FloatAccountResponse struct {
	AccountID   string               `json:"accountID"`
	DisplayName string               `json:"displayName"`
	Role        domain.AccountRole   `json:"role"`
	Status      domain.AccountStatus `json:"status"`
	IsActive    bool                 `json:"isActive"`

	Balance        decimal.Decimal  `json:"balance"`
	MinimumBalance decimal.Decimal  `json:"minimumBalance"`
	MaximumBalance *decimal.Decimal `json:"maximumBalance,omitempty"`

	SupplierBalance    decimal.Decimal  `json:"supplierBalance"`
	MerchantBalance    decimal.Decimal  `json:"merchantBalance"`
	NetBalance         decimal.Decimal  `json:"netBalance"`
	MaxSupplierBalance *decimal.Decimal `json:"maxSupplierBalance,omitempty"`
	MaxMerchantBalance *decimal.Decimal `json:"maxMerchantBalance,omitempty"`

	NetSettlementThreshold decimal.Decimal `json:"netSettlementThreshold"`
	AutoSettlementEnabled  bool            `json:"autoSettlementEnabled"`

	SettlementPeriod domain.SettlementPeriod `json:"settlementPeriod"`
	FundingMethod    domain.FundingMethod    `json:"fundingMethod"`

	LastSettlementAt *time.Time `json:"lastSettlementAt,omitempty"`
	NextSettlementAt *time.Time `json:"nextSettlementAt,omitempty"`

	BankAccountNumber string `json:"bankAccountNumber,omitempty"`
	BankCode          string `json:"bankCode,omitempty"`
	BankName          string `json:"bankName,omitempty"`

	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// NetPositionResponse is the read-only net position snapshot.
type NetPositionResponse struct {
	AccountID          string              `json:"accountID"`
	NetBalance         decimal.Decimal     `json:"netBalance"`
	Direction          domain.NetDirection `json:"direction"`
	RequiresSettlement bool                `json:"requiresSettlement"`
}

// UtilizationResponse reports balance utilization for one side of an account.
type UtilizationResponse struct {
	AccountID             string             `json:"accountID"`
	Side                  domain.BalanceSide `json:"side"`
	UtilizationPercentage decimal.Decimal    `json:"utilizationPercentage"`
}

// ToFloatAccountResponse converts a domain.FloatAccount to its response DTO.
func ToFloatAccountResponse(acc *domain.FloatAccount) FloatAccountResponse {
	return FloatAccountResponse{
		AccountID:              acc.AccountID,
		DisplayName:            acc.DisplayName,
		Role:                   acc.Role,
		Status:                 acc.Status,
		IsActive:               acc.IsActive(),
		Balance:                acc.Balance,
		MinimumBalance:         acc.MinimumBalance,
		MaximumBalance:         acc.MaximumBalance,
		SupplierBalance:        acc.SupplierBalance,
		MerchantBalance:        acc.MerchantBalance,
		NetBalance:             acc.NetBalance(),
		MaxSupplierBalance:     acc.MaxSupplierBalance,
		MaxMerchantBalance:     acc.MaxMerchantBalance,
		NetSettlementThreshold: acc.NetSettlementThreshold,
		AutoSettlementEnabled:  acc.AutoSettlementEnabled,
		SettlementPeriod:       acc.SettlementPeriod,
		FundingMethod:          acc.FundingMethod,
		LastSettlementAt:       acc.LastSettlementAt,
		NextSettlementAt:       acc.NextSettlementAt,
		BankAccountNumber:      acc.BankAccountNumber,
		BankCode:               acc.BankCode,
		BankName:               acc.BankName,
		CreatedAt:              acc.CreatedAt,
		CreatedBy:              acc.CreatedBy,
		LastUpdatedAt:          acc.LastUpdatedAt,
		LastUpdatedBy:          acc.LastUpdatedBy,
	}
}

// ToListFloatAccountResponse converts a slice of accounts to response DTOs.
func ToListFloatAccountResponse(accounts []domain.FloatAccount) []FloatAccountResponse {
	res := make([]FloatAccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToFloatAccountResponse(&acc)
	}
	return res
}

// ToNetPositionResponse converts a domain.NetPosition to its response DTO.
func ToNetPositionResponse(pos *domain.NetPosition) NetPositionResponse {
	return NetPositionResponse{
		AccountID:          pos.AccountID,
		NetBalance:         pos.NetBalance,
		Direction:          pos.Direction,
		RequiresSettlement: pos.RequiresSettlement,
	}
}
