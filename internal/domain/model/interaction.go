package model

import (
	"encoding/json"
	"strings"
)

// InteractionType is the numeric kind of an inbound Discord interaction.
type InteractionType int

const (
	InteractionPing InteractionType = iota + 1
	InteractionApplicationCommand
	InteractionMessageComponent
	InteractionAutocomplete
	InteractionModalSubmit
)

func (t InteractionType) String() string {
	switch t {
	case InteractionPing:
		return "ping"
	case InteractionApplicationCommand:
		return "application_command"
	case InteractionMessageComponent:
		return "message_component"
	case InteractionAutocomplete:
		return "autocomplete"
	case InteractionModalSubmit:
		return "modal_submit"
	default:
		return "unknown"
	}
}

// Interaction is one event received on the interactions endpoint. It lives
// for a single request; Token stays valid for follow-up edits for ~15 minutes.
type Interaction struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Type          InteractionType `json:"type"`
	Data          *CommandData    `json:"data,omitempty"`
	GuildID       string          `json:"guild_id,omitempty"`
	ChannelID     string          `json:"channel_id,omitempty"`
	Member        *Member         `json:"member,omitempty"`
	User          *User           `json:"user,omitempty"`
	Token         string          `json:"token"`
	Version       int             `json:"version"`
}

type CommandData struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    int             `json:"type"`
	Options []CommandOption `json:"options,omitempty"`
}

type CommandOption struct {
	Name    string          `json:"name"`
	Type    int             `json:"type"`
	Value   json.RawMessage `json:"value,omitempty"`
	Options []CommandOption `json:"options,omitempty"`
}

// StringValue returns the option value when it was sent as a JSON string.
func (o CommandOption) StringValue() (string, bool) {
	if len(o.Value) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(o.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name,omitempty"`
	Discriminator string `json:"discriminator,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
}

// DisplayName prefers the global display name over the account username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

type Member struct {
	User        *User    `json:"user,omitempty"`
	Nick        string   `json:"nick,omitempty"`
	Roles       []string `json:"roles"`
	Permissions string   `json:"permissions,omitempty"`
	JoinedAt    string   `json:"joined_at,omitempty"`
}

// CommandName returns the invoked command name, lower-cased, or "".
func (i *Interaction) CommandName() string {
	if i == nil || i.Data == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(i.Data.Name))
}

// Option looks up a top-level command option by name.
func (i *Interaction) Option(name string) (CommandOption, bool) {
	if i == nil || i.Data == nil {
		return CommandOption{}, false
	}
	for _, opt := range i.Data.Options {
		if opt.Name == name {
			return opt, true
		}
	}
	return CommandOption{}, false
}

// Invoker returns the invoking user, checking the DM path before the guild path.
func (i *Interaction) Invoker() *User {
	if i == nil {
		return nil
	}
	if i.User != nil && i.User.ID != "" {
		return i.User
	}
	if i.Member != nil && i.Member.User != nil && i.Member.User.ID != "" {
		return i.Member.User
	}
	return nil
}
