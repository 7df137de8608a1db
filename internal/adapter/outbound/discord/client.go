package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/outbound"
)

const (
	defaultPageSize = 1000
	originalMessage = "@original"
)

var (
	ErrMissingPermission = errors.New("bot lacks permission to access server members")
	ErrUnauthorized      = errors.New("discord authentication failed: invalid bot token")
)

// session is the subset of *discordgo.Session the client calls.
type session interface {
	GuildMembers(guildID, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	WebhookMessageEdit(webhookID, token, messageID string, data *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Config holds Discord REST client configuration.
type Config struct {
	BotToken   string
	PageSize   int
	HTTPClient *http.Client
}

// Client implements outbound.MemberSource and outbound.FollowUpSender over
// the Discord REST API.
type Client struct {
	session  session
	pageSize int
	logger   *slog.Logger
}

var (
	_ outbound.MemberSource   = (*Client)(nil)
	_ outbound.FollowUpSender = (*Client)(nil)
)

// NewClient creates a REST-only Discord client. No gateway connection is opened.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	s, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	if cfg.HTTPClient != nil {
		s.Client = cfg.HTTPClient
	}
	s.UserAgent = "sheetbot (https://github.com/jonny/sheetbot)"
	return newClient(s, cfg.PageSize, logger), nil
}

func newClient(s session, pageSize int, logger *slog.Logger) *Client {
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{session: s, pageSize: pageSize, logger: logger}
}

// ListGuildMembers pages through every member of guildID.
func (c *Client) ListGuildMembers(ctx context.Context, guildID string) ([]model.GuildMember, error) {
	var (
		out   []model.GuildMember
		after string
	)
	for {
		page, err := c.session.GuildMembers(guildID, after, c.pageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch members: %w", mapRESTError(err))
		}
		for _, m := range page {
			if m == nil || m.User == nil {
				continue
			}
			out = append(out, toGuildMember(m))
		}
		if len(page) < c.pageSize {
			break
		}
		last := page[len(page)-1]
		if last == nil || last.User == nil || last.User.ID == after {
			break
		}
		after = last.User.ID
	}

	c.logger.Debug("fetched guild members", "guild_id", guildID, "count", len(out))
	return out, nil
}

// EditOriginalResponse replaces the content of the deferred response.
func (c *Client) EditOriginalResponse(ctx context.Context, applicationID, token, content string) error {
	_, err := c.session.WebhookMessageEdit(applicationID, token, originalMessage,
		&discordgo.WebhookEdit{Content: &content},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("editing original response: %w", mapRESTError(err))
	}
	return nil
}

func toGuildMember(m *discordgo.Member) model.GuildMember {
	name := m.Nick
	if name == "" {
		name = m.User.GlobalName
	}
	if name == "" {
		name = m.User.Username
	}
	return model.GuildMember{
		ID:          m.User.ID,
		Username:    m.User.Username,
		DisplayName: name,
		JoinedAt:    m.JoinedAt,
		Bot:         m.User.Bot,
	}
}

// mapRESTError turns discordgo REST failures into errors the classifier
// understands. Anything that is not a REST error passes through unchanged.
func mapRESTError(err error) error {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}

	status := 0
	if rest.Response != nil {
		status = rest.Response.StatusCode
	}
	code := 0
	msg := ""
	if rest.Message != nil {
		code = rest.Message.Code
		msg = rest.Message.Message
	}

	switch {
	case status == http.StatusForbidden || code == discordgo.ErrCodeMissingPermissions || code == discordgo.ErrCodeMissingAccess:
		return ErrMissingPermission
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case msg != "":
		return fmt.Errorf("discord api error: status %d: %s", status, msg)
	default:
		return fmt.Errorf("discord api error: status %d", status)
	}
}
