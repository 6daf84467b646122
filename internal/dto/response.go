package dto

import "github.com/Couks/projeto-tfc-sub000/internal/analytics"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"eventName is required"`
}

// Period echoes the resolved date range on every analyzer response
type Period struct {
	Start string `json:"start" example:"2025-06-01T00:00:00-03:00"`
	End   string `json:"end" example:"2025-06-30T23:59:59-03:00"`
}

// TrackEventResponse represents a successful event ingestion response
type TrackEventResponse struct {
	EventID string `json:"eventId" example:"evt_1a2b3c4d5e6f"`
	Status  string `json:"status" example:"accepted"`
}

// TrackEventsBatchResponse represents a batched ingestion outcome
type TrackEventsBatchResponse struct {
	Accepted int      `json:"accepted" example:"5"`
	Rejected int      `json:"rejected" example:"0"`
	EventIDs []string `json:"eventIds,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// ConversionsResponse represents the conversion analyzer result
type ConversionsResponse struct {
	Period         Period                     `json:"period"`
	TotalConverted uint64                     `json:"totalConverted"`
	ByType         []analytics.DimensionCount `json:"byType"`
	BySource       []analytics.DimensionCount `json:"bySource"`
}

// DevicesResponse represents the device-triple analyzer result
type DevicesResponse struct {
	Period  Period                     `json:"period"`
	Devices []analytics.DimensionCount `json:"devices"`
}

// BounceResponse represents the bounce-type analyzer result
type BounceResponse struct {
	Period Period                     `json:"period"`
	Types  []analytics.DimensionCount `json:"types"`
}

// SearchProfileResponse represents the search-dimension analyzer result
type SearchProfileResponse struct {
	Period        Period                     `json:"period"`
	TotalSearches uint64                     `json:"totalSearches"`
	Finalidades   []analytics.DimensionCount `json:"finalidades"`
	Tipos         []analytics.DimensionCount `json:"tipos"`
	Cidades       []analytics.DimensionCount `json:"cidades"`
	Bairros       []analytics.DimensionCount `json:"bairros"`
	Quartos       []analytics.DimensionCount `json:"quartos"`
	Comodidades   []analytics.DimensionCount `json:"comodidades"`
	Lazer         []analytics.DimensionCount `json:"lazer"`
	Seguranca     []analytics.DimensionCount `json:"seguranca"`
	PrecoVenda    []analytics.DimensionCount `json:"precoVenda"`
	PrecoAluguel  []analytics.DimensionCount `json:"precoAluguel"`
	Area          []analytics.DimensionCount `json:"area"`
}

// FiltersResponse represents the filter-usage analyzer result
type FiltersResponse struct {
	Period        Period                        `json:"period"`
	TotalSearches uint64                        `json:"totalSearches"`
	Usage         []analytics.DimensionCount    `json:"usage"`
	Combinations  []analytics.FilterCombination `json:"combinations"`
}

// FunnelResponse represents the funnel analyzer result
type FunnelResponse struct {
	Period                Period                  `json:"period"`
	Stages                []analytics.FunnelStage `json:"stages"`
	TotalStarted          uint64                  `json:"totalStarted"`
	OverallConversionRate float64                 `json:"overallConversionRate"`
}

// TopConvertingFiltersResponse represents the correlator result
type TopConvertingFiltersResponse struct {
	Period  Period                       `json:"period"`
	Filters []analytics.ConvertingFilter `json:"filters"`
}

// LeadProfileResponse represents the lead profiler result
type LeadProfileResponse struct {
	Period  Period                `json:"period"`
	Profile analytics.LeadProfile `json:"profile"`
}

// RollupRefreshResponse acknowledges a rollup refresh
type RollupRefreshResponse struct {
	Status string `json:"status" example:"refreshed"`
	From   string `json:"from" example:"2025-04-01"`
	To     string `json:"to" example:"2025-06-30"`
}
