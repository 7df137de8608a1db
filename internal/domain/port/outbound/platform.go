package outbound

import (
	"context"

	"github.com/jonny/sheetbot/internal/domain/model"
)

// MemberSource lists the members of a Discord server.
type MemberSource interface {
	ListGuildMembers(ctx context.Context, guildID string) ([]model.GuildMember, error)
}

// FollowUpSender replaces the content of a deferred interaction response.
type FollowUpSender interface {
	EditOriginalResponse(ctx context.Context, applicationID, token, content string) error
}

// SheetStore is the spreadsheet the bot writes members and registrations to.
type SheetStore interface {
	ExistingMemberIDs(ctx context.Context) (map[string]struct{}, error)
	AppendMembers(ctx context.Context, members []model.GuildMember) error
	AppendRegistration(ctx context.Context, reg model.Registration) error
}
