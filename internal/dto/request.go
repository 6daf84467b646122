package dto

// TrackEventRequest represents a single incoming behavioral event
type TrackEventRequest struct {
	EventName  string                 `json:"eventName" binding:"required" example:"search_submitted"`
	UserID     string                 `json:"userId" example:"user_123"`
	SessionID  string                 `json:"sessionId" example:"sess_9f2c"`
	Timestamp  int64                  `json:"timestamp" example:"1723475612000"`
	Properties map[string]interface{} `json:"properties" swaggertype:"object"`
	Context    map[string]interface{} `json:"context" swaggertype:"object"`
}

// TrackEventsBatchRequest represents a batched submission (1..500 events)
type TrackEventsBatchRequest struct {
	Events []TrackEventRequest `json:"events" binding:"required,min=1,max=500,dive"`
}

// AnalyticsQuery represents the period selector shared by every analyzer
type AnalyticsQuery struct {
	Period    string `form:"period" example:"month"`
	StartDate string `form:"startDate" example:"2025-06-01T00:00:00Z"`
	EndDate   string `form:"endDate" example:"2025-06-30T23:59:59Z"`
	Limit     int    `form:"limit" example:"10"`
}

// RollupRefreshRequest represents an admin rollup refresh; both dates
// optional, defaulting to the last 90 days
type RollupRefreshRequest struct {
	FromDate string `json:"fromDate" example:"2025-04-01"`
	ToDate   string `json:"toDate" example:"2025-06-30"`
}
