package model

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

// ---- Result tests ----

func TestResult_OkAndFail(t *testing.T) {
	ok := Ok(42)
	if !ok.IsOK() || ok.Value() != 42 || ok.Err() != "" {
		t.Errorf("unexpected ok result: %+v", ok)
	}

	fail := Fail[int]("boom")
	if fail.IsOK() {
		t.Error("expected failure")
	}
	if fail.Value() != 0 {
		t.Errorf("expected zero value, got %d", fail.Value())
	}
	if fail.Err() != "boom" {
		t.Errorf("expected 'boom', got %q", fail.Err())
	}
}

func TestResult_Map(t *testing.T) {
	doubled := Map(Ok(21), func(v int) int { return v * 2 })
	if !doubled.IsOK() || doubled.Value() != 42 {
		t.Errorf("Map on success: got %+v", doubled)
	}

	called := false
	failed := Map(Fail[int]("nope"), func(v int) string {
		called = true
		return "x"
	})
	if called {
		t.Error("Map must not call f on failure")
	}
	if failed.Err() != "nope" {
		t.Errorf("expected failure to pass through, got %q", failed.Err())
	}
}

func TestResult_Bind_ShortCircuits(t *testing.T) {
	steps := 0
	r := Bind(Ok("a"), func(s string) Result[string] {
		steps++
		return Fail[string]("first")
	})
	r = Bind(r, func(s string) Result[string] {
		steps++
		return Fail[string]("second")
	})

	if steps != 1 {
		t.Errorf("expected 1 step to run, got %d", steps)
	}
	if r.Err() != "first" {
		t.Errorf("expected first failure to win, got %q", r.Err())
	}
}

func TestResult_Combine(t *testing.T) {
	all := Combine(Ok(1), Ok(2), Ok(3))
	if !all.IsOK() || len(all.Value()) != 3 {
		t.Fatalf("Combine success: got %+v", all)
	}

	mixed := Combine(Ok(1), Fail[int]("second"), Fail[int]("third"))
	if mixed.IsOK() {
		t.Fatal("expected failure")
	}
	if mixed.Err() != "second" {
		t.Errorf("expected first failure 'second', got %q", mixed.Err())
	}

	empty := Combine[int]()
	if !empty.IsOK() || len(empty.Value()) != 0 {
		t.Errorf("Combine with no inputs: got %+v", empty)
	}
}

// ---- Interaction tests ----

func TestInteraction_UnmarshalCommand(t *testing.T) {
	payload := `{
		"id": "111",
		"application_id": "222",
		"type": 2,
		"token": "tok",
		"version": 1,
		"guild_id": "333",
		"channel_id": "444",
		"member": {"user": {"id": "555", "username": "rocket"}, "roles": ["8", "9"]},
		"data": {"id": "c1", "name": "Register", "options": [{"name": "tracker", "type": 3, "value": "https://example.com"}]}
	}`

	var i Interaction
	if err := json.Unmarshal([]byte(payload), &i); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if i.Type != InteractionApplicationCommand {
		t.Errorf("expected application command, got %v", i.Type)
	}
	if i.CommandName() != "register" {
		t.Errorf("expected lower-cased command name, got %q", i.CommandName())
	}
	opt, ok := i.Option("tracker")
	if !ok {
		t.Fatal("expected tracker option")
	}
	if v, ok := opt.StringValue(); !ok || v != "https://example.com" {
		t.Errorf("unexpected option value %q (%v)", v, ok)
	}
	if !i.Member.HasRole(AdminRoleMarker) {
		t.Error("expected member to carry the admin marker")
	}
}

func TestCommandOption_StringValue_NonString(t *testing.T) {
	opt := CommandOption{Name: "count", Value: json.RawMessage(`5`)}
	if _, ok := opt.StringValue(); ok {
		t.Error("expected non-string value to be rejected")
	}
	if _, ok := (CommandOption{}).StringValue(); ok {
		t.Error("expected empty value to be rejected")
	}
}

func TestInteraction_Invoker(t *testing.T) {
	direct := &Interaction{User: &User{ID: "u1"}, Member: &Member{User: &User{ID: "m1"}}}
	if got := direct.Invoker(); got == nil || got.ID != "u1" {
		t.Errorf("expected direct user first, got %+v", got)
	}

	nested := &Interaction{Member: &Member{User: &User{ID: "m1"}}}
	if got := nested.Invoker(); got == nil || got.ID != "m1" {
		t.Errorf("expected member user, got %+v", got)
	}

	emptyDirect := &Interaction{User: &User{}, Member: &Member{User: &User{ID: "m2"}}}
	if got := emptyDirect.Invoker(); got == nil || got.ID != "m2" {
		t.Errorf("expected fallback past empty user id, got %+v", got)
	}

	var none *Interaction
	if none.Invoker() != nil {
		t.Error("expected nil invoker for nil interaction")
	}
}

func TestUser_DisplayName(t *testing.T) {
	if got := (&User{Username: "a", GlobalName: "Alpha"}).DisplayName(); got != "Alpha" {
		t.Errorf("got %q", got)
	}
	if got := (&User{Username: "a"}).DisplayName(); got != "a" {
		t.Errorf("got %q", got)
	}
	var u *User
	if u.DisplayName() != "" {
		t.Error("expected empty display name for nil user")
	}
}

// ---- Response tests ----

func TestResponses(t *testing.T) {
	if PongResponse().Type != ResponsePong {
		t.Error("pong type mismatch")
	}

	eph := EphemeralResponse("hi")
	if eph.Type != ResponseChannelMessage || !eph.IsEphemeral() || eph.Content() != "hi" {
		t.Errorf("unexpected ephemeral response %+v", eph)
	}

	if MessageResponse("x").IsEphemeral() {
		t.Error("plain message must not be ephemeral")
	}

	deferred := DeferredResponse(true)
	if deferred.Type != ResponseDeferredChannelMessage || !deferred.IsEphemeral() {
		t.Errorf("unexpected deferred response %+v", deferred)
	}
	if DeferredResponse(false).Data != nil {
		t.Error("public deferred response should carry no data")
	}

	body, err := json.Marshal(PongResponse())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != `{"type":1}` {
		t.Errorf("unexpected pong body %s", body)
	}
}

// ---- Deferred state tests ----

func TestDeferredState_Transitions(t *testing.T) {
	tests := []struct {
		from, to DeferredState
		want     bool
	}{
		{DeferredReceived, DeferredPending, true},
		{DeferredReceived, DeferredErroredBeforeDefer, true},
		{DeferredReceived, DeferredCompleted, false},
		{DeferredPending, DeferredCompleted, true},
		{DeferredPending, DeferredErroredBeforeDefer, false},
		{DeferredCompleted, DeferredPending, false},
		{DeferredErroredBeforeDefer, DeferredPending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if !DeferredCompleted.Terminal() || !DeferredErroredBeforeDefer.Terminal() {
		t.Error("expected completed and errored states to be terminal")
	}
	if DeferredPending.Terminal() {
		t.Error("deferred must not be terminal")
	}
}

// ---- Security context tests ----

func TestSecurityContext_RoundTrip(t *testing.T) {
	sc := NewSecurityContext("10.0.0.1", "Discord-Interactions/1.0", time.Now())
	if sc.CorrelationID == "" {
		t.Fatal("expected correlation id")
	}
	other := NewSecurityContext("10.0.0.1", "", time.Now())
	if other.CorrelationID == sc.CorrelationID {
		t.Error("expected unique correlation ids")
	}

	ctx := WithSecurityContext(context.Background(), sc)
	got, ok := SecurityContextFrom(ctx)
	if !ok || got.CorrelationID != sc.CorrelationID {
		t.Errorf("round trip failed: %+v", got)
	}
	if CorrelationID(context.Background()) != "" {
		t.Error("expected empty correlation id without a security context")
	}
}

// ---- Member / outcome tests ----

func TestGuildMember_SheetRow(t *testing.T) {
	joined := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	row := GuildMember{ID: "1", Username: "u", DisplayName: "U", JoinedAt: joined}.SheetRow()
	if len(row) != 4 || row[0] != "1" || row[3] != "2024-03-01T12:00:00Z" {
		t.Errorf("unexpected row %v", row)
	}
	if r := (GuildMember{ID: "2"}).SheetRow(); r[3] != "" {
		t.Errorf("expected empty joined column, got %v", r[3])
	}
}

func TestSyncOutcome(t *testing.T) {
	if !SyncSucceeded(0).Succeeded() {
		t.Error("expected success")
	}
	failed := SyncFailed(errors.New("x"))
	if failed.Succeeded() {
		t.Error("expected failure")
	}
	if SyncFailed(nil).Err == nil {
		t.Error("SyncFailed(nil) must still carry an error")
	}
}

func TestRegistration_SheetRow(t *testing.T) {
	r := Registration{
		DiscordID:    "1",
		DiscordName:  "rocket",
		Platform:     "epic",
		PlayerID:     "player",
		TrackerURL:   "https://rocketleague.tracker.network/rocket-league/profile/epic/player",
		RegisteredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	row := r.SheetRow()
	if len(row) != 6 || row[0] != "2024-01-01T00:00:00Z" || row[3] != "epic" {
		t.Errorf("unexpected row %v", row)
	}
}

// ---- Audit tests ----

func TestNewAuditLog(t *testing.T) {
	l := NewAuditLog(AuditSignatureRejected, "corr-1", "bad signature")
	if l.ID == "" {
		t.Error("expected ID")
	}
	if l.EventType != AuditSignatureRejected || l.CorrelationID != "corr-1" {
		t.Errorf("unexpected log %+v", l)
	}
	if l.Metadata == nil {
		t.Error("expected non-nil metadata")
	}
}

func TestAuditLog_ForInteraction(t *testing.T) {
	i := &Interaction{
		ID:      "i1",
		GuildID: "g1",
		Member:  &Member{User: &User{ID: "u1"}},
		Data:    &CommandData{Name: "sync"},
	}
	l := NewAuditLog(AuditCommandDispatched, "c", "d").ForInteraction(i)
	if l.InteractionID != "i1" || l.GuildID != "g1" || l.UserID != "u1" || l.Command != "sync" {
		t.Errorf("unexpected log %+v", l)
	}
	if same := l.ForInteraction(nil); same.InteractionID != "i1" {
		t.Error("nil interaction must leave the log unchanged")
	}
}

func TestAuditLog_WithMetadata(t *testing.T) {
	original := NewAuditLog(AuditSyncFailed, "c", "d")
	updated := original.WithMetadata("added", "3")

	if _, ok := original.Metadata["added"]; ok {
		t.Error("original metadata must not be mutated")
	}
	if updated.Metadata["added"] != "3" {
		t.Errorf("expected metadata value, got %v", updated.Metadata)
	}
	if !strings.Contains(string(updated.EventType), "sync") {
		t.Errorf("unexpected event type %s", updated.EventType)
	}
}
