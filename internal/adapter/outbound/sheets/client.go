package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/outbound"
)

const (
	valueInputRaw   = "RAW"
	insertRows      = "INSERT_ROWS"
	defaultTimeout  = 15 * time.Second
	majorDimensions = "ROWS"
)

// Config holds Google Sheets client configuration.
type Config struct {
	SpreadsheetID       string
	MembersRange        string
	RegistrationsRange  string
	ServiceAccountEmail string
	// PrivateKey is the PEM service account key. Escaped "\n" sequences, as
	// found in env files, are accepted.
	PrivateKey string
	Timeout    time.Duration

	// TokenURL and Endpoint override Google's defaults.
	TokenURL string
	Endpoint string
	// HTTPClient is the base client used for token and API calls.
	HTTPClient *http.Client
}

// Client implements outbound.SheetStore on a single spreadsheet.
type Client struct {
	svc    *gsheets.Service
	cfg    Config
	logger *slog.Logger
}

var _ outbound.SheetStore = (*Client)(nil)

// New authenticates with a service account JWT and builds the Sheets service.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets: spreadsheet id is required")
	}
	if cfg.ServiceAccountEmail == "" || cfg.PrivateKey == "" {
		return nil, errors.New("sheets: service account credentials are required")
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = google.JWTTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	jwtCfg := &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(normalizeKey(cfg.PrivateKey)),
		Scopes:     []string{gsheets.SpreadsheetsScope},
		TokenURL:   cfg.TokenURL,
	}

	// Token requests use the base client; the returned client layers auth on it.
	tokenCtx := context.WithoutCancel(ctx)
	if cfg.HTTPClient != nil {
		tokenCtx = context.WithValue(tokenCtx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	httpClient := jwtCfg.Client(tokenCtx)
	httpClient.Timeout = cfg.Timeout

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: creating service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheets.Service, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{svc: svc, cfg: cfg, logger: logger}
}

// ExistingMemberIDs reads the first column of the members range.
func (c *Client) ExistingMemberIDs(ctx context.Context) (map[string]struct{}, error) {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.cfg.SpreadsheetID, c.cfg.MembersRange).
		MajorDimension(majorDimensions).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read members sheet: %w", err)
	}

	ids := make(map[string]struct{}, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[0]))
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// AppendMembers appends one row per member. An empty slice is a no-op.
func (c *Client) AppendMembers(ctx context.Context, members []model.GuildMember) error {
	if len(members) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(members))
	for _, m := range members {
		rows = append(rows, m.SheetRow())
	}
	if err := c.append(ctx, c.cfg.MembersRange, rows); err != nil {
		return fmt.Errorf("failed to append members: %w", err)
	}
	c.logger.Info("appended members to sheet", "count", len(rows))
	return nil
}

// AppendRegistration appends a single registration row.
func (c *Client) AppendRegistration(ctx context.Context, reg model.Registration) error {
	if err := c.append(ctx, c.cfg.RegistrationsRange, [][]any{reg.SheetRow()}); err != nil {
		return fmt.Errorf("failed to append registration: %w", err)
	}
	return nil
}

func (c *Client) append(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheets.ValueRange{MajorDimension: majorDimensions, Values: rows}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.cfg.SpreadsheetID, rng, vr).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	return err
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), `\n`, "\n")
}

// ErrNotConfigured is returned by Unconfigured for every call.
var ErrNotConfigured = errors.New("sheets authentication not configured")

// Unconfigured stands in for the spreadsheet when no service account is set,
// so commands fail with a configuration message instead of the process
// refusing to start.
type Unconfigured struct{}

var _ outbound.SheetStore = Unconfigured{}

func (Unconfigured) ExistingMemberIDs(context.Context) (map[string]struct{}, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) AppendMembers(context.Context, []model.GuildMember) error {
	return fmt.Errorf("failed to append members: %w", ErrNotConfigured)
}

func (Unconfigured) AppendRegistration(context.Context, model.Registration) error {
	return fmt.Errorf("failed to append registration: %w", ErrNotConfigured)
}
