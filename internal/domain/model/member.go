package model

import (
	"fmt"
	"time"
)

// GuildMember is one member of the Discord server as read for a sync.
type GuildMember struct {
	ID          string
	Username    string
	DisplayName string
	JoinedAt    time.Time
	Bot         bool
}

// SheetRow renders the member the way the members sheet stores it.
func (m GuildMember) SheetRow() []any {
	joined := ""
	if !m.JoinedAt.IsZero() {
		joined = m.JoinedAt.UTC().Format(time.RFC3339)
	}
	return []any{m.ID, m.Username, m.DisplayName, joined}
}

// SyncOutcome is the result of one background sync run.
type SyncOutcome struct {
	Added int
	Err   error
}

func SyncSucceeded(added int) SyncOutcome { return SyncOutcome{Added: added} }

func SyncFailed(err error) SyncOutcome {
	if err == nil {
		err = fmt.Errorf("sync failed without an error")
	}
	return SyncOutcome{Err: err}
}

func (o SyncOutcome) Succeeded() bool { return o.Err == nil }

// Registration is one tracker profile submitted through /register.
type Registration struct {
	DiscordID    string
	DiscordName  string
	Platform     string
	PlayerID     string
	TrackerURL   string
	RegisteredAt time.Time
}

func (r Registration) SheetRow() []any {
	return []any{
		r.RegisteredAt.UTC().Format(time.RFC3339),
		r.DiscordID,
		r.DiscordName,
		r.Platform,
		r.PlayerID,
		r.TrackerURL,
	}
}
