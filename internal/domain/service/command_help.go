package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonny/sheetbot/internal/domain/model"
)

// HelpCommand lists the commands registered on a dispatcher.
type HelpCommand struct {
	dispatcher *Dispatcher
}

func NewHelpCommand(d *Dispatcher) *HelpCommand {
	return &HelpCommand{dispatcher: d}
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Show available commands" }

func (c *HelpCommand) Handle(_ context.Context, _ CommandRequest) model.InteractionResponse {
	var b strings.Builder
	b.WriteString("**Available commands**\n")
	for _, cmd := range c.dispatcher.Commands() {
		fmt.Fprintf(&b, "`/%s` %s\n", cmd.Name(), cmd.Description())
	}
	return model.EphemeralResponse(strings.TrimRight(b.String(), "\n"))
}
