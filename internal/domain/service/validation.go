package service

import (
	"strings"

	"github.com/jonny/sheetbot/internal/domain/model"
)

// User-facing validation messages. They are safe to return verbatim.
const (
	MsgExecContextUnavailable = "Execution context not available"
	MsgExecContextMalformed   = "Execution context missing required methods"
	MsgInvalidInteraction     = "Invalid interaction format"
	MsgInvalidCommandData     = "Invalid command data"
	MsgUserUnavailable        = "User information not available"
	MsgMissingConfig          = "Missing required environment configuration"
	MsgGuildOnly              = "This command can only be used in a Discord server"
	MsgAdminChannelOnly       = "This command can only be used in the designated admin channel"
	MsgInsufficientPerms      = "Insufficient permissions for this admin command"

	MsgChannelNotConfigured = "Channel restriction not configured."
	MsgChannelUnknown       = "Unable to determine channel. Please try again."
	MsgTestChannelOnly      = "This command can only be used in the test channel."
	MsgRegisterChannelOnly  = "This command can only be used in the designated register channel."
)

// AdminContext accumulates everything the admin chain validated.
type AdminContext struct {
	Interaction *model.Interaction
	UserID      string
	Settings    Settings
	Channel     model.ChannelDecision
	Permission  model.PermissionDecision
}

func CheckExecutionContext(exec *model.ExecutionContext) model.Result[*model.ExecutionContext] {
	if exec == nil {
		return model.Fail[*model.ExecutionContext](MsgExecContextUnavailable)
	}
	if exec.WaitUntil == nil {
		return model.Fail[*model.ExecutionContext](MsgExecContextMalformed)
	}
	return model.Ok(exec)
}

func CheckInteractionStructure(i *model.Interaction) model.Result[*model.Interaction] {
	if i == nil || strings.TrimSpace(i.ID) == "" {
		return model.Fail[*model.Interaction](MsgInvalidInteraction)
	}
	return model.Ok(i)
}

// CheckCommandData requires a named command payload on command interactions.
// Other interaction types pass through.
func CheckCommandData(i *model.Interaction) model.Result[*model.Interaction] {
	if i.Type != model.InteractionApplicationCommand {
		return model.Ok(i)
	}
	if i.Data == nil || strings.TrimSpace(i.Data.Name) == "" {
		return model.Fail[*model.Interaction](MsgInvalidCommandData)
	}
	return model.Ok(i)
}

func ExtractUserID(i *model.Interaction) model.Result[string] {
	if u := i.Invoker(); u != nil {
		return model.Ok(u.ID)
	}
	return model.Fail[string](MsgUserUnavailable)
}

func CheckEnvironmentConfig(s Settings) model.Result[Settings] {
	if strings.TrimSpace(s.SpreadsheetID) == "" {
		return model.Fail[Settings](MsgMissingConfig)
	}
	return model.Ok(s)
}

// inGuild reports whether the interaction came from a server. Member is only
// populated for guild interactions, so it counts even when guild_id is absent.
func inGuild(i *model.Interaction) bool {
	return i.GuildID != "" || i.Member != nil
}

// CheckAdminChannel restricts admin commands to Settings.AdminChannel. With
// neither an admin nor a test channel configured nothing matches.
func CheckAdminChannel(i *model.Interaction, s Settings) model.ChannelDecision {
	if !inGuild(i) {
		return model.ChannelDecision{Reason: MsgGuildOnly}
	}
	want := s.AdminChannel()
	if want == "" || i.ChannelID != want {
		return model.ChannelDecision{Reason: MsgAdminChannelOnly}
	}
	return model.ChannelDecision{Allowed: true}
}

// CheckAdminPermission authorizes holders of the admin role marker and the
// configured privileged user. The role is reported when both apply.
func CheckAdminPermission(m *model.Member, userID string, s Settings) model.PermissionDecision {
	if m.HasRole(model.AdminRoleMarker) {
		return model.PermissionDecision{Authorized: true, UserType: model.UserTypeAdminRole}
	}
	if s.PrivilegedUserID != "" && userID == s.PrivilegedUserID {
		return model.PermissionDecision{Authorized: true, UserType: model.UserTypePrivileged}
	}
	return model.PermissionDecision{Reason: MsgInsufficientPerms}
}

// CheckAdminAccess runs the channel and permission checks together. When both
// fail the channel reason is reported.
func CheckAdminAccess(ac AdminContext) model.Result[AdminContext] {
	ac.Channel = CheckAdminChannel(ac.Interaction, ac.Settings)
	ac.Permission = CheckAdminPermission(ac.Interaction.Member, ac.UserID, ac.Settings)

	checks := model.Combine(
		decisionResult(ac.Channel.Allowed, ac.Channel.Reason),
		decisionResult(ac.Permission.Authorized, ac.Permission.Reason),
	)
	return model.Map(checks, func([]struct{}) AdminContext { return ac })
}

func decisionResult(ok bool, reason string) model.Result[struct{}] {
	if ok {
		return model.Ok(struct{}{})
	}
	return model.Fail[struct{}](reason)
}

// ValidateAdminCommand is the full admin chain. Each stage only runs when the
// previous one succeeded.
func ValidateAdminCommand(exec *model.ExecutionContext, i *model.Interaction, s Settings) model.Result[AdminContext] {
	execOK := CheckExecutionContext(exec)

	interaction := model.Bind(execOK, func(*model.ExecutionContext) model.Result[*model.Interaction] {
		return CheckInteractionStructure(i)
	})
	interaction = model.Bind(interaction, CheckCommandData)

	withUser := model.Bind(interaction, func(i *model.Interaction) model.Result[AdminContext] {
		return model.Map(ExtractUserID(i), func(id string) AdminContext {
			return AdminContext{Interaction: i, UserID: id}
		})
	})

	withConfig := model.Bind(withUser, func(ac AdminContext) model.Result[AdminContext] {
		return model.Map(CheckEnvironmentConfig(s), func(s Settings) AdminContext {
			ac.Settings = s
			return ac
		})
	})

	return model.Bind(withConfig, CheckAdminAccess)
}

// ResolveRegisterChannel picks the channel /register is allowed in.
func ResolveRegisterChannel(s Settings) model.Result[string] {
	if ch := s.RegisterChannel(); ch != "" {
		return model.Ok(ch)
	}
	return model.Fail[string](MsgChannelNotConfigured)
}

func CheckRegisterChannel(i *model.Interaction, s Settings) model.ChannelDecision {
	r := model.Bind(ResolveRegisterChannel(s), func(want string) model.Result[string] {
		if i == nil || i.ChannelID == "" {
			return model.Fail[string](MsgChannelUnknown)
		}
		if i.ChannelID != want {
			if s.IsDevelopment() {
				return model.Fail[string](MsgTestChannelOnly)
			}
			return model.Fail[string](MsgRegisterChannelOnly)
		}
		return model.Ok(want)
	})
	return model.ChannelDecision{Allowed: r.IsOK(), Reason: r.Err()}
}
