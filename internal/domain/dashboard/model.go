package dashboard

import (
	"victim-aid-go/internal/domain/aid"
	"victim-aid-go/internal/domain/audit"
)

type Kind string

const (
	KindAgent     Kind = "agent"
	KindAssistant Kind = "assistant"
	KindOverview  Kind = "overview"
)

// Dashboard carries exactly one of the role-specific views.
type Dashboard struct {
	Kind      Kind            `json:"kind"`
	Agent     *AgentStats     `json:"agent,omitempty"`
	Assistant *AssistantStats `json:"assistant,omitempty"`
	Overview  *Overview       `json:"overview,omitempty"`
}

type AgentStats struct {
	MyVictims     int64         `json:"my_victims"`
	MyFamilies    int64         `json:"my_families"`
	RecentActions []audit.Entry `json:"recent_actions"`
}

type AssistantStats struct {
	MyRequests       int64         `json:"my_requests"`
	Validated        int64         `json:"validated"`
	Pending          int64         `json:"pending"`
	Refused          int64         `json:"refused"`
	FamiliesFollowed int64         `json:"families_followed"`
	ValidationRate   float64       `json:"validation_rate"`
	RecentActions    []audit.Entry `json:"recent_actions"`
	RecentRequests   []aid.Request `json:"recent_requests"`
}

type Overview struct {
	TotalVictims      int64         `json:"total_victims"`
	NewThisMonth      int64         `json:"new_this_month"`
	ValidatedRequests int64         `json:"validated_requests"`
	ResolutionRate    float64       `json:"resolution_rate"`
	RecentActions     []audit.Entry `json:"recent_actions"`
}

type FamiliesAided struct {
	Families int64 `json:"families"`
}
