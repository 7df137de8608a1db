package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditEventType string

const (
	AuditSignatureRejected  AuditEventType = "signature.rejected"
	AuditRequestInvalid     AuditEventType = "request.invalid"
	AuditRateLimited        AuditEventType = "request.rate_limited"
	AuditValidationFailed   AuditEventType = "validation.failed"
	AuditCommandDispatched  AuditEventType = "command.dispatched"
	AuditRegistrationStored AuditEventType = "registration.stored"
	AuditSyncDeferred       AuditEventType = "sync.deferred"
	AuditSyncCompleted      AuditEventType = "sync.completed"
	AuditSyncFailed         AuditEventType = "sync.failed"
	AuditFollowUpFailed     AuditEventType = "followup.failed"
)

type AuditLog struct {
	ID            string            `json:"id"`
	EventType     AuditEventType    `json:"event_type"`
	CorrelationID string            `json:"correlation_id"`
	InteractionID string            `json:"interaction_id"`
	GuildID       string            `json:"guild_id"`
	UserID        string            `json:"user_id"`
	Command       string            `json:"command"`
	Description   string            `json:"description"`
	Metadata      map[string]string `json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
}

func NewAuditLog(eventType AuditEventType, correlationID, description string) AuditLog {
	return AuditLog{
		ID:            uuid.NewString(),
		EventType:     eventType,
		CorrelationID: correlationID,
		Description:   description,
		Metadata:      make(map[string]string),
		CreatedAt:     time.Now().UTC(),
	}
}

// ForInteraction copies the identifying fields of i onto the log entry.
func (a AuditLog) ForInteraction(i *Interaction) AuditLog {
	if i == nil {
		return a
	}
	a.InteractionID = i.ID
	a.GuildID = i.GuildID
	a.Command = i.CommandName()
	if u := i.Invoker(); u != nil {
		a.UserID = u.ID
	}
	return a
}

func (a AuditLog) WithMetadata(key, value string) AuditLog {
	meta := make(map[string]string, len(a.Metadata)+1)
	for k, v := range a.Metadata {
		meta[k] = v
	}
	meta[key] = value
	a.Metadata = meta
	return a
}
