package models

// Patient is the dashboard's view of a monitored person.
type Patient struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"` // "Stable" or "Attention"
	Medication     string `json:"medication"`
	Exercise       string `json:"exercise"`
	CognitiveScore int    `json:"cognitiveScore"`
	LastUpdate     string `json:"lastUpdate"`
}

// CareEventSummary is a human-readable activity feed entry.
type CareEventSummary struct {
	ID          int    `json:"id"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Status      string `json:"status"`
}

// Telemetry is the snapshot pushed to dashboards that ask for live data.
type Telemetry struct {
	Type       string         `json:"type"`
	Momentum   MomentumInfo   `json:"momentum"`
	Confidence ConfidenceInfo `json:"confidence"`
	Volatility VolatilityInfo `json:"volatility"`
}

// MomentumInfo holds the trend of routine completion.
type MomentumInfo struct {
	Value  float64 `json:"value"`
	Trend  string  `json:"trend"`
	Change float64 `json:"change"`
}

// ConfidenceInfo holds how reliable the current readings are.
type ConfidenceInfo struct {
	Level      string `json:"level"`
	Percentage int    `json:"percentage"`
}

// VolatilityInfo describes how consistent routines have been.
type VolatilityInfo struct {
	Level       string  `json:"level"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}
