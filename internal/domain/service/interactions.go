package service

import (
	"context"
	"log/slog"

	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/inbound"
)

// InteractionService is the entry point for verified interactions.
type InteractionService struct {
	dispatcher *Dispatcher
	auditor    *Auditor
	logger     *slog.Logger
}

func NewInteractionService(dispatcher *Dispatcher, auditor *Auditor, logger *slog.Logger) *InteractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionService{dispatcher: dispatcher, auditor: auditor, logger: logger}
}

var _ inbound.InteractionPort = (*InteractionService)(nil)

// HandleInteraction answers pings, dispatches commands, and rejects anything
// else. Errors are reserved for payloads the HTTP layer must refuse; user
// facing validation failures come back as ephemeral responses.
func (s *InteractionService) HandleInteraction(ctx context.Context, req inbound.InteractionRequest) (model.InteractionResponse, error) {
	corrID := req.Security.CorrelationID

	structure := CheckInteractionStructure(req.Interaction)
	if !structure.IsOK() {
		s.auditor.Record(ctx, model.NewAuditLog(model.AuditRequestInvalid, corrID, structure.Err()))
		return model.InteractionResponse{}, inbound.ErrInvalidInteraction
	}
	i := structure.Value()

	switch i.Type {
	case model.InteractionPing:
		return model.PongResponse(), nil

	case model.InteractionApplicationCommand:
		if r := CheckCommandData(i); !r.IsOK() {
			s.auditor.Record(ctx, model.NewAuditLog(model.AuditValidationFailed, corrID, r.Err()).ForInteraction(i))
			return model.EphemeralResponse(r.Err()), nil
		}
		s.auditor.Record(ctx, model.NewAuditLog(model.AuditCommandDispatched, corrID, "command dispatched").ForInteraction(i))
		return s.dispatcher.Dispatch(ctx, commandRequest(req)), nil

	default:
		s.logger.Warn("unsupported interaction type",
			"type", i.Type.String(),
			"correlation_id", corrID,
		)
		s.auditor.Record(ctx, model.NewAuditLog(model.AuditRequestInvalid, corrID, "unsupported interaction type").
			ForInteraction(i).
			WithMetadata("type", i.Type.String()))
		return model.InteractionResponse{}, inbound.ErrUnsupportedInteractionType
	}
}

func commandRequest(req inbound.InteractionRequest) CommandRequest {
	return CommandRequest{
		Interaction: req.Interaction,
		Exec:        req.Exec,
		Security:    req.Security,
	}
}
