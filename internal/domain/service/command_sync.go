package service

import (
	"context"
	"log/slog"

	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/outbound"
)

// SyncCommand copies guild members that are not yet in the members sheet.
// It is admin-only and always deferred.
type SyncCommand struct {
	members   outbound.MemberSource
	sheets    outbound.SheetStore
	responder *DeferredResponder
	settings  Settings
	auditor   *Auditor
	logger    *slog.Logger
}

func NewSyncCommand(
	members outbound.MemberSource,
	sheets outbound.SheetStore,
	responder *DeferredResponder,
	settings Settings,
	auditor *Auditor,
	logger *slog.Logger,
) *SyncCommand {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncCommand{
		members:   members,
		sheets:    sheets,
		responder: responder,
		settings:  settings,
		auditor:   auditor,
		logger:    logger,
	}
}

func (c *SyncCommand) Name() string { return "sync" }

func (c *SyncCommand) Description() string {
	return "Sync server members into the spreadsheet (admin only)"
}

func (c *SyncCommand) Handle(ctx context.Context, req CommandRequest) model.InteractionResponse {
	validated := model.Bind(ValidateAdminCommand(req.Exec, req.Interaction, c.settings), requireGuildID)
	if !validated.IsOK() {
		c.auditor.Record(ctx, model.NewAuditLog(model.AuditValidationFailed, req.Security.CorrelationID, validated.Err()).
			ForInteraction(req.Interaction))
		return model.EphemeralResponse(validated.Err())
	}

	ac := validated.Value()
	c.logger.Info("sync authorized",
		"correlation_id", req.Security.CorrelationID,
		"user_id", ac.UserID,
		"user_type", ac.Permission.UserType,
	)

	guildID := ac.Interaction.GuildID
	return c.responder.Defer(ctx, req.Exec, ac.Interaction, true, func(ctx context.Context) model.SyncOutcome {
		return c.syncMembers(ctx, guildID)
	})
}

// requireGuildID rejects member-only interactions that carry no guild_id;
// the member list can only be fetched for a known guild.
func requireGuildID(ac AdminContext) model.Result[AdminContext] {
	if ac.Interaction.GuildID == "" {
		return model.Fail[AdminContext](MsgGuildOnly)
	}
	return model.Ok(ac)
}

func (c *SyncCommand) syncMembers(ctx context.Context, guildID string) model.SyncOutcome {
	members, err := c.members.ListGuildMembers(ctx, guildID)
	if err != nil {
		return model.SyncFailed(err)
	}

	existing, err := c.sheets.ExistingMemberIDs(ctx)
	if err != nil {
		return model.SyncFailed(err)
	}

	fresh := NewMembers(members, existing)
	if len(fresh) == 0 {
		return model.SyncSucceeded(0)
	}
	if err := c.sheets.AppendMembers(ctx, fresh); err != nil {
		return model.SyncFailed(err)
	}
	return model.SyncSucceeded(len(fresh))
}

// NewMembers drops bots, members already in the sheet, and duplicates.
func NewMembers(members []model.GuildMember, existing map[string]struct{}) []model.GuildMember {
	seen := make(map[string]struct{}, len(members))
	var out []model.GuildMember
	for _, m := range members {
		if m.Bot || m.ID == "" {
			continue
		}
		if _, ok := existing[m.ID]; ok {
			continue
		}
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}
