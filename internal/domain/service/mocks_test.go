package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/outbound"
	"github.com/jonny/sheetbot/internal/domain/service"
)

type mockFollowUp struct{ mock.Mock }

func (m *mockFollowUp) EditOriginalResponse(ctx context.Context, appID, token, content string) error {
	args := m.Called(ctx, appID, token, content)
	return args.Error(0)
}

var _ outbound.FollowUpSender = (*mockFollowUp)(nil)

type mockMembers struct{ mock.Mock }

func (m *mockMembers) ListGuildMembers(ctx context.Context, guildID string) ([]model.GuildMember, error) {
	args := m.Called(ctx, guildID)
	members, _ := args.Get(0).([]model.GuildMember)
	return members, args.Error(1)
}

var _ outbound.MemberSource = (*mockMembers)(nil)

type mockSheets struct{ mock.Mock }

func (m *mockSheets) ExistingMemberIDs(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).(map[string]struct{})
	return ids, args.Error(1)
}

func (m *mockSheets) AppendMembers(ctx context.Context, members []model.GuildMember) error {
	return m.Called(ctx, members).Error(0)
}

func (m *mockSheets) AppendRegistration(ctx context.Context, reg model.Registration) error {
	return m.Called(ctx, reg).Error(0)
}

var _ outbound.SheetStore = (*mockSheets)(nil)

// memAuditRepo keeps audit entries in memory.
type memAuditRepo struct {
	mu       sync.Mutex
	entries  []model.AuditLog
	err      error
	lastPage outbound.PageRequest
}

func (r *memAuditRepo) Create(_ context.Context, log model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, log)
	return nil
}

func (r *memAuditRepo) List(_ context.Context, f outbound.AuditFilter, page outbound.PageRequest) (outbound.PageResult[model.AuditLog], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastPage = page
	var items []model.AuditLog
	for _, e := range r.entries {
		if f.CorrelationID != "" && e.CorrelationID != f.CorrelationID {
			continue
		}
		items = append(items, e)
	}
	return outbound.PageResult[model.AuditLog]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *memAuditRepo) events() []model.AuditEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.AuditEventType, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.EventType)
	}
	return out
}

var _ outbound.AuditRepository = (*memAuditRepo)(nil)

// recordingExec captures scheduled tasks so tests decide when they run.
type recordingExec struct {
	tasks []model.BackgroundTask
}

func (e *recordingExec) context() *model.ExecutionContext {
	return &model.ExecutionContext{WaitUntil: func(t model.BackgroundTask) {
		e.tasks = append(e.tasks, t)
	}}
}

func (e *recordingExec) runAll(ctx context.Context) {
	for _, t := range e.tasks {
		t(ctx)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const (
	testChannel    = "1388177835331424386"
	privilegedUser = "354474826192388127"
	adminChannel   = "1400000000000000001"
	registerChan   = "1400000000000000002"
)

func devSettings() service.Settings {
	return service.Settings{
		Environment:       "development",
		SpreadsheetID:     "sheet-123",
		RegisterChannelID: registerChan,
		TestChannelID:     testChannel,
		AdminChannelID:    adminChannel,
		PrivilegedUserID:  privilegedUser,
	}
}

func prodSettings() service.Settings {
	s := devSettings()
	s.Environment = "production"
	return s
}

func commandInteraction(name, channelID string, member *model.Member) *model.Interaction {
	return &model.Interaction{
		ID:            "int-1",
		ApplicationID: "app-1",
		Type:          model.InteractionApplicationCommand,
		Data:          &model.CommandData{Name: name},
		GuildID:       "guild-1",
		ChannelID:     channelID,
		Member:        member,
		Token:         "tok-1",
		Version:       1,
	}
}

func memberWith(userID string, roles ...string) *model.Member {
	return &model.Member{User: &model.User{ID: userID, Username: "user-" + userID}, Roles: roles}
}
