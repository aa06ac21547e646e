package hub

import (
	"context"

	"github.com/provide-io/foundation-go/errs"
	"github.com/provide-io/foundation-go/registry"
)

// CommandFunc is the callable shape of a registered command.
type CommandFunc func(ctx context.Context, args []string) error

// Command is one CLI command held in the command dimension. Argument
// parsing itself is delegated to an external command-line library; the
// hub only stores the callable and its metadata.
type Command struct {
	Name     string
	Run      CommandFunc
	Help     string
	Aliases  []string
	Hidden   bool
	Category string
}

// AddCommand registers cmd under its name and aliases.
func (h *Hub) AddCommand(cmd Command) error {
	if cmd.Name == "" {
		return errs.Validation("command needs a name")
	}
	if cmd.Run == nil {
		return errs.Validation("command needs a callable").With("name", cmd.Name)
	}
	_, err := h.components.Register(DimensionCommand, cmd.Name, cmd, registry.RegisterOptions{
		Aliases: cmd.Aliases,
		Metadata: map[string]any{
			"help":     cmd.Help,
			"hidden":   cmd.Hidden,
			"category": cmd.Category,
		},
	})
	return err
}

// GetCommand resolves name (or an alias) to its Command.
func (h *Hub) GetCommand(name string) (Command, error) {
	v, err := h.components.Get(name, DimensionCommand)
	if err != nil {
		return Command{}, err
	}
	if v == nil {
		return Command{}, errs.NotFound("no such command").With("name", name)
	}
	cmd, ok := v.(Command)
	if !ok {
		return Command{}, errs.Integrity("command dimension holds a non-command value").With("name", name)
	}
	return cmd, nil
}

// ListCommands returns primary command names in registration order,
// omitting hidden commands.
func (h *Hub) ListCommands() []string {
	var out []string
	for _, name := range h.components.ListDimension(DimensionCommand) {
		entry, err := h.components.GetEntry(name, DimensionCommand)
		if err != nil || entry == nil {
			continue
		}
		if hidden, _ := entry.Metadata["hidden"].(bool); hidden {
			continue
		}
		out = append(out, name)
	}
	return out
}
