package inbound

import (
	"context"
	"errors"

	"github.com/jonny/sheetbot/internal/domain/model"
)

var (
	// ErrInvalidInteraction means the payload parsed but is not a usable interaction.
	ErrInvalidInteraction = errors.New("invalid interaction format")
	// ErrUnsupportedInteractionType means the interaction type has no handler.
	ErrUnsupportedInteractionType = errors.New("unsupported interaction type")
)

// InteractionPort handles verified interactions from the chat platform.
type InteractionPort interface {
	HandleInteraction(ctx context.Context, req InteractionRequest) (model.InteractionResponse, error)
}

type InteractionRequest struct {
	Interaction *model.Interaction
	Exec        *model.ExecutionContext
	Security    model.SecurityContext
}
