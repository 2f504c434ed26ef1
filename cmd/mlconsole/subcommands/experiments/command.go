// Package experiments holds "mlconsole experiments" commands.
package experiments

import (
	"fmt"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
)

func New(cf *command.CommonFlags, open command.Opener) *command.Commander {
	g := command.NewCommander("experiments", command.Help{
		Synopsis: "list, watch and control training experiments",
	})
	g.Register(command.Build(NewList(), cf, open))
	g.Register(command.Build(NewWatch(), cf, open))
	g.Register(command.Build(NewStart(), cf, open))
	g.Register(command.Build(NewStop(), cf, open))
	return g
}

// oneId returns the only argument.
func oneId(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: one EXPERIMENT_ID is required", command.ErrUsage)
	}
	return args[0], nil
}
