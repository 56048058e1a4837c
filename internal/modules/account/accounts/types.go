package accounts

import (
	"github.com/encounter-space/core/internal/models"
	"github.com/encounter-space/core/internal/modules/account/usage"
)

// PatchRequest is the mutable slice of an account. Everything else on
// the projection belongs to the sync pipeline.
type PatchRequest struct {
	DisplayName *string                `json:"display_name"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// UsageResponse is the dashboard's usage read.
type UsageResponse struct {
	UserID   string                `json:"user_id"`
	Tier     string                `json:"tier"`
	Counters usage.Counters        `json:"counters"`
	Usage    []usage.ResourceUsage `json:"usage"`
	Warnings []usage.Warning       `json:"warnings"`
}

// ListFilter narrows the account listing.
type ListFilter struct {
	Tier string
}

func buildUsage(account *models.AccountModel) *UsageResponse {
	counters := usage.CountersFor(account)
	limits := usage.LimitsFor(account.Tier)
	warnings := usage.WarningsFor(counters, limits)
	if warnings == nil {
		warnings = []usage.Warning{}
	}
	return &UsageResponse{
		UserID:   account.UserID,
		Tier:     account.Tier,
		Counters: counters,
		Usage:    usage.Report(counters, limits),
		Warnings: warnings,
	}
}
