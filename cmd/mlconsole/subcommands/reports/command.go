// Package reports holds "mlconsole reports" commands.
package reports

import (
	"fmt"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
)

func New(cf *command.CommonFlags, open command.Opener) *command.Commander {
	g := command.NewCommander("reports", command.Help{
		Synopsis: "list, publish and export reports",
	})
	g.Register(command.Build(NewList(), cf, open))
	g.Register(command.Build(NewPublish(), cf, open))
	g.Register(command.Build(NewExport(), cf, open))
	return g
}

func oneId(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: one REPORT_ID is required", command.ErrUsage)
	}
	return args[0], nil
}
