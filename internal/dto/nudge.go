package dto

import "time"

// NudgeActionItem is an optional suggested next step attached to a nudge.
type NudgeActionItem struct {
	Label string `json:"label"`
	Kind  string `json:"kind"`
	Data  string `json:"data,omitempty"`
}

// NudgeItem is one active re-engagement nudge.
type NudgeItem struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Priority  string           `json:"priority"`
	Action    *NudgeActionItem `json:"action,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
}

// NudgesResponse is the prioritized, capped nudge list.
// @Description Active nudges, highest priority first
type NudgesResponse struct {
	Nudges []NudgeItem `json:"nudges"`
}

// MessageResponse represents a generic message response.
// @Description Generic message response
type MessageResponse struct {
	Message string `json:"message"`
}
