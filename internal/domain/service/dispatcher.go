package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/jonny/sheetbot/internal/domain/model"
)

const MsgUnknownCommand = "Unknown command"

// CommandRequest is what a command receives from the dispatcher.
type CommandRequest struct {
	Interaction *model.Interaction
	Exec        *model.ExecutionContext
	Security    model.SecurityContext
}

// Command handles one slash command. Handlers do their own option parsing and
// run their own validation chain.
type Command interface {
	Name() string
	Description() string
	Handle(ctx context.Context, req CommandRequest) model.InteractionResponse
}

// Dispatcher routes interactions to commands by name.
type Dispatcher struct {
	commands map[string]Command
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger, commands ...Command) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{commands: make(map[string]Command), logger: logger}
	for _, c := range commands {
		d.Register(c)
	}
	return d
}

// Register adds c, replacing any command with the same name.
func (d *Dispatcher) Register(c Command) {
	d.commands[strings.ToLower(c.Name())] = c
}

// Dispatch never fails: unknown names get the uniform unknown-command reply.
func (d *Dispatcher) Dispatch(ctx context.Context, req CommandRequest) model.InteractionResponse {
	name := req.Interaction.CommandName()
	cmd, ok := d.commands[name]
	if !ok {
		d.logger.Info("unknown command",
			"command", name,
			"correlation_id", req.Security.CorrelationID,
		)
		return model.EphemeralResponse(MsgUnknownCommand)
	}
	return cmd.Handle(ctx, req)
}

// Commands returns the registered commands sorted by name.
func (d *Dispatcher) Commands() []Command {
	out := make([]Command, 0, len(d.commands))
	for _, c := range d.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
