package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonny/sheetbot/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/inbound"
	"github.com/jonny/sheetbot/pkg/apierror"
)

// Auditor records security-relevant request events.
type Auditor interface {
	Record(ctx context.Context, entry model.AuditLog)
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, model.AuditLog) {}

type HandlerConfig struct {
	PublicKey     string
	VerifyTimeout time.Duration
	MaxBodyBytes  int64
}

// Handler serves POST / for signed interactions.
type Handler struct {
	cfg      HandlerConfig
	port     inbound.InteractionPort
	verifier *SignatureVerifier
	runner   TaskRunner
	auditor  Auditor
	logger   *slog.Logger
}

func NewHandler(
	cfg HandlerConfig,
	port inbound.InteractionPort,
	verifier *SignatureVerifier,
	runner TaskRunner,
	auditor Auditor,
	logger *slog.Logger,
) *Handler {
	if verifier == nil {
		verifier = NewSignatureVerifier(nil)
	}
	if auditor == nil {
		auditor = nopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 2 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Handler{
		cfg:      cfg,
		port:     port,
		verifier: verifier,
		runner:   runner,
		auditor:  auditor,
		logger:   logger,
	}
}

// ServeHTTP handles one interaction:
//  1. reads the body and verifies the signature under VerifyTimeout
//  2. parses the interaction and hands it to the interaction port
//  3. writes and flushes the response
//  4. releases any background tasks the request scheduled
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sc, ok := model.SecurityContextFrom(ctx)
	if !ok {
		sc = model.NewSecurityContext(middleware.ClientIP(r), r.UserAgent(), time.Now())
		ctx = model.WithSecurityContext(ctx, sc)
	}

	scope := &taskScope{}
	defer func() {
		if rec := recover(); rec != nil {
			scope.discard()
			h.logger.Error("panic while handling interaction",
				"panic", rec,
				"correlation_id", sc.CorrelationID,
			)
			apierror.Write(w, apierror.Internal("Internal server error"))
		}
	}()

	body, err := h.readAndVerify(ctx, r, sc)
	if err != nil {
		apierror.Write(w, err)
		return
	}

	var interaction model.Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		h.auditor.Record(ctx, model.NewAuditLog(model.AuditRequestInvalid, sc.CorrelationID, "unparseable interaction body"))
		apierror.Write(w, apierror.BadRequest("Invalid JSON"))
		return
	}

	resp, err := h.port.HandleInteraction(ctx, inbound.InteractionRequest{
		Interaction: &interaction,
		Exec:        scope.executionContext(),
		Security:    sc,
	})
	switch {
	case errors.Is(err, inbound.ErrInvalidInteraction):
		apierror.Write(w, apierror.Unauthorized("Invalid interaction format"))
		return
	case errors.Is(err, inbound.ErrUnsupportedInteractionType):
		apierror.Write(w, apierror.BadRequest("Unknown interaction type"))
		return
	case err != nil:
		h.logger.Error("handling interaction failed", "error", err, "correlation_id", sc.CorrelationID)
		apierror.Write(w, apierror.Internal("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Warn("writing interaction response failed", "error", err, "correlation_id", sc.CorrelationID)
	}
	if err := http.NewResponseController(w).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("flushing interaction response failed", "error", err, "correlation_id", sc.CorrelationID)
	}

	if n := scope.release(h.runner); n > 0 {
		h.logger.Debug("background tasks released", "count", n, "correlation_id", sc.CorrelationID)
	}
}

func (h *Handler) readAndVerify(ctx context.Context, r *http.Request, sc model.SecurityContext) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.VerifyTimeout)
	defer cancel()

	body, err := middleware.ReadBody(ctx, r.Body, h.cfg.MaxBodyBytes)
	if err != nil {
		h.logger.Info("reading interaction body failed", "error", err, "correlation_id", sc.CorrelationID)
		h.auditor.Record(ctx, model.NewAuditLog(model.AuditRequestInvalid, sc.CorrelationID, "unreadable request body"))
		return nil, apierror.WithDetail(http.StatusBadRequest, "Invalid request", err.Error())
	}

	signature := r.Header.Get(HeaderSignature)
	timestamp := r.Header.Get(HeaderTimestamp)
	if !h.verifier.Verify(body, signature, timestamp, h.cfg.PublicKey) {
		h.auditor.Record(ctx, model.NewAuditLog(model.AuditSignatureRejected, sc.CorrelationID, "invalid request signature").
			WithMetadata("client_ip", sc.ClientIP).
			WithMetadata("headers_present", headersPresent(signature, timestamp)))
		return nil, apierror.Unauthorized("Invalid request signature")
	}

	if err := ctx.Err(); err != nil {
		return nil, apierror.WithDetail(http.StatusBadRequest, "Invalid request", err.Error())
	}
	return body, nil
}

func headersPresent(signature, timestamp string) string {
	switch {
	case signature != "" && timestamp != "":
		return "both"
	case signature != "":
		return "signature"
	case timestamp != "":
		return "timestamp"
	default:
		return "none"
	}
}
