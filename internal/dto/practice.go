package dto

// PracticeItemResponse is one recommended problem in a generated session.
type PracticeItemResponse struct {
	Subject     string `json:"subject"`
	Difficulty  string `json:"difficulty"`
	Reason      string `json:"reason"`
	EstimatedXP int    `json:"estimated_xp"`
}

// PracticeSessionResponse is a generated adaptive practice session.
// @Description Generated practice session
type PracticeSessionResponse struct {
	SessionType string                 `json:"session_type"`
	Items       []PracticeItemResponse `json:"items"`
}

// SubjectPerformanceItem summarizes one subject's history.
type SubjectPerformanceItem struct {
	Subject        string  `json:"subject"`
	TotalProblems  int     `json:"total_problems"`
	AvgAttempts    float64 `json:"avg_attempts"`
	AvgTimeSeconds float64 `json:"avg_time_seconds"`
	AvgHints       float64 `json:"avg_hints"`
	CompletionRate float64 `json:"completion_rate"`
	Classification string  `json:"classification"`
}

// PerformanceAnalysisResponse is the read-only projection of a user's
// per-subject performance.
// @Description Weak/strong areas and a suggested focus subject
type PerformanceAnalysisResponse struct {
	WeakAreas      []SubjectPerformanceItem `json:"weak_areas"`
	StrongAreas    []SubjectPerformanceItem `json:"strong_areas"`
	SuggestedFocus string                   `json:"suggested_focus,omitempty"`
}
