package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/outbound"
)

const (
	MsgInvalidTrackerURL = "Please provide a valid Rocket League tracker URL, e.g. https://rocketleague.tracker.network/rocket-league/profile/epic/YourName/overview"
	trackerOption        = "tracker_url"
)

var trackerURLPattern = regexp.MustCompile(
	`^https://rocketleague\.tracker\.network/rocket-league/profile/(epic|steam|psn|xbl|switch)/([^/?#]+)(?:/overview)?/?$`,
)

// TrackerProfile is a player profile parsed from a tracker URL.
type TrackerProfile struct {
	Platform string
	PlayerID string
	URL      string
}

func ParseTrackerURL(raw string) model.Result[TrackerProfile] {
	raw = strings.TrimSpace(raw)
	m := trackerURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return model.Fail[TrackerProfile](MsgInvalidTrackerURL)
	}
	id, err := url.PathUnescape(m[2])
	if err != nil || strings.TrimSpace(id) == "" {
		return model.Fail[TrackerProfile](MsgInvalidTrackerURL)
	}
	return model.Ok(TrackerProfile{Platform: m[1], PlayerID: id, URL: raw})
}

// RegisterCommand stores a player's tracker profile in the registrations sheet.
type RegisterCommand struct {
	sheets   outbound.SheetStore
	settings Settings
	auditor  *Auditor
	logger   *slog.Logger
	now      func() time.Time
}

func NewRegisterCommand(sheets outbound.SheetStore, settings Settings, auditor *Auditor, logger *slog.Logger) *RegisterCommand {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterCommand{
		sheets:   sheets,
		settings: settings,
		auditor:  auditor,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *RegisterCommand) Name() string { return "register" }

func (c *RegisterCommand) Description() string {
	return "Register your Rocket League tracker profile"
}

type registerInput struct {
	userID  string
	name    string
	profile TrackerProfile
}

func (c *RegisterCommand) Handle(ctx context.Context, req CommandRequest) model.InteractionResponse {
	i := req.Interaction

	input := model.Bind(ExtractUserID(i), func(userID string) model.Result[registerInput] {
		return model.Map(CheckEnvironmentConfig(c.settings), func(Settings) registerInput {
			return registerInput{userID: userID, name: i.Invoker().DisplayName()}
		})
	})
	input = model.Bind(input, func(in registerInput) model.Result[registerInput] {
		if d := CheckRegisterChannel(i, c.settings); !d.Allowed {
			return model.Fail[registerInput](d.Reason)
		}
		return model.Ok(in)
	})
	input = model.Bind(input, func(in registerInput) model.Result[registerInput] {
		opt, ok := i.Option(trackerOption)
		if !ok {
			return model.Fail[registerInput](MsgInvalidTrackerURL)
		}
		raw, _ := opt.StringValue()
		return model.Map(ParseTrackerURL(raw), func(p TrackerProfile) registerInput {
			in.profile = p
			return in
		})
	})

	if !input.IsOK() {
		c.auditor.Record(ctx, model.NewAuditLog(model.AuditValidationFailed, req.Security.CorrelationID, input.Err()).
			ForInteraction(i))
		return model.EphemeralResponse(input.Err())
	}

	in := input.Value()
	reg := model.Registration{
		DiscordID:    in.userID,
		DiscordName:  in.name,
		Platform:     in.profile.Platform,
		PlayerID:     in.profile.PlayerID,
		TrackerURL:   in.profile.URL,
		RegisteredAt: c.now().UTC(),
	}
	if err := c.sheets.AppendRegistration(ctx, reg); err != nil {
		c.logger.Error("storing registration failed",
			"error", err,
			"correlation_id", req.Security.CorrelationID,
			"user_id", in.userID,
		)
		return model.EphemeralResponse("❌ Registration failed: " + Classify(err))
	}

	c.auditor.Record(ctx, model.NewAuditLog(model.AuditRegistrationStored, req.Security.CorrelationID, "registration stored").
		ForInteraction(i).
		WithMetadata("platform", reg.Platform))

	return model.EphemeralResponse(fmt.Sprintf("✅ Registered %s profile **%s**", reg.Platform, reg.PlayerID))
}
