package domain

import "time"

// RiskLevel grades an audit event.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// AuditEvent is emitted once per mutating call.
type AuditEvent struct {
	Action       string            `json:"action"`
	RiskLevel    RiskLevel         `json:"riskLevel"`
	ActorID      string            `json:"actorID"`
	ResourceType string            `json:"resourceType"`
	ResourceID   string            `json:"resourceID"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	OccurredAt   time.Time         `json:"occurredAt"`
}
