package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/outbound"
)

const msgDeferUnavailable = "Unable to process this command right now. Please try again."

// SyncWork is the long-running part of a deferred command.
type SyncWork func(ctx context.Context) model.SyncOutcome

// panicError carries a value recovered from a panicking SyncWork.
type panicError struct {
	value any
}

func (p panicError) Error() string {
	if err, ok := p.value.(error); ok {
		return "panic: " + err.Error()
	}
	return "panic in background task"
}

func (p panicError) Unwrap() error {
	err, _ := p.value.(error)
	return err
}

// DeferredResponder acknowledges an interaction immediately and finishes it
// from a background task that edits the original response exactly once.
type DeferredResponder struct {
	followUp outbound.FollowUpSender
	auditor  *Auditor
	logger   *slog.Logger
}

func NewDeferredResponder(followUp outbound.FollowUpSender, auditor *Auditor, logger *slog.Logger) *DeferredResponder {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeferredResponder{followUp: followUp, auditor: auditor, logger: logger}
}

// Defer returns the deferred acknowledgment and schedules work through
// exec.WaitUntil. If the interaction cannot be deferred, an ephemeral error is
// returned instead and nothing is scheduled.
func (d *DeferredResponder) Defer(
	ctx context.Context,
	exec *model.ExecutionContext,
	interaction *model.Interaction,
	ephemeral bool,
	work SyncWork,
) model.InteractionResponse {
	state := model.DeferredReceived

	if r := CheckExecutionContext(exec); !r.IsOK() {
		return d.failBeforeDefer(ctx, &state, interaction, r.Err())
	}
	if interaction == nil || interaction.Token == "" || interaction.ApplicationID == "" {
		return d.failBeforeDefer(ctx, &state, interaction, msgDeferUnavailable)
	}

	d.transition(&state, model.DeferredPending)

	sc, _ := model.SecurityContextFrom(ctx)
	appID, token := interaction.ApplicationID, interaction.Token
	auditEntry := func(t model.AuditEventType, desc string) model.AuditLog {
		return model.NewAuditLog(t, sc.CorrelationID, desc).ForInteraction(interaction)
	}
	d.auditor.Record(ctx, auditEntry(model.AuditSyncDeferred, "command deferred"))

	exec.WaitUntil(func(taskCtx context.Context) {
		taskCtx = model.WithSecurityContext(taskCtx, sc)
		outcome := runWork(taskCtx, work)
		content := SyncMessage(outcome)

		if outcome.Succeeded() {
			d.auditor.Record(taskCtx, auditEntry(model.AuditSyncCompleted, "sync completed").
				WithMetadata("added", fmt.Sprint(outcome.Added)))
		} else {
			d.logger.Error("background task failed",
				"error", outcome.Err,
				"correlation_id", sc.CorrelationID,
				"interaction_id", interaction.ID,
			)
			d.auditor.Record(taskCtx, auditEntry(model.AuditSyncFailed, "sync failed").
				WithMetadata("error", outcome.Err.Error()))
		}

		if err := d.followUp.EditOriginalResponse(taskCtx, appID, token, content); err != nil {
			d.logger.Error("editing deferred response failed",
				"error", err,
				"correlation_id", sc.CorrelationID,
				"interaction_id", interaction.ID,
			)
			d.auditor.Record(taskCtx, auditEntry(model.AuditFollowUpFailed, "patch-back failed").
				WithMetadata("error", err.Error()))
		}
		d.transition(&state, model.DeferredCompleted)
	})

	return model.DeferredResponse(ephemeral)
}

func (d *DeferredResponder) failBeforeDefer(ctx context.Context, state *model.DeferredState, i *model.Interaction, msg string) model.InteractionResponse {
	d.transition(state, model.DeferredErroredBeforeDefer)
	d.auditor.Record(ctx, model.NewAuditLog(model.AuditValidationFailed, model.CorrelationID(ctx), msg).ForInteraction(i))
	return model.EphemeralResponse(msg)
}

func (d *DeferredResponder) transition(state *model.DeferredState, next model.DeferredState) {
	if !state.CanTransition(next) {
		d.logger.Error("illegal deferred state transition", "from", state.String(), "to", next.String())
		return
	}
	*state = next
}

// runWork converts a panic in work into a failed outcome so the task always
// reaches its patch-back.
func runWork(ctx context.Context, work SyncWork) (out model.SyncOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = model.SyncFailed(panicError{value: r})
		}
	}()
	if work == nil {
		return model.SyncFailed(fmt.Errorf("no work scheduled"))
	}
	return work(ctx)
}

// SyncMessage renders the content that replaces the deferred acknowledgment.
func SyncMessage(o model.SyncOutcome) string {
	if o.Succeeded() {
		return fmt.Sprintf("✅ Successfully synced %d new members to sheets", o.Added)
	}
	var pe panicError
	if errors.As(o.Err, &pe) {
		return "❌ Sync failed: " + ClassifyRecovered(pe.value)
	}
	return "❌ Sync failed: " + Classify(o.Err)
}
