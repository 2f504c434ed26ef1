// Package settings holds "mlconsole settings" commands.
package settings

import (
	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
)

func New(cf *command.CommonFlags, open command.Opener) *command.Commander {
	g := command.NewCommander("settings", command.Help{
		Synopsis: "show system settings and user preferences, and run maintenance",
	})
	g.Register(command.Build(NewShow(), cf, open))
	g.Register(command.Build(NewTestConnection(), cf, open))
	g.Register(command.Build(NewCleanup(), cf, open))
	return g
}
