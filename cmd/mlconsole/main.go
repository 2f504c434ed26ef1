package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"
	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/dashboard"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/datasets"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/experiments"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/notifications"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/reports"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/settings"
	"github.com/opst/mlconsole/pkg/utils/try"
)

func main() {
	name := path.Base(os.Args[0])
	logger := log.New(os.Stderr, fmt.Sprintf("[%s] ", name), log.LstdFlags)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cf := try.To(command.DefaultCommonFlags()).OrFatal(logger)
	open := command.OpenProfile

	root := subcommands.NewCommander(flag.CommandLine, name)
	root.Register(root.HelpCommand(), "help")
	root.Register(root.FlagsCommand(), "help")
	root.Register(root.CommandsCommand(), "help")

	for _, c := range []subcommands.Command{
		command.Build(dashboard.New(), &cf, open),
		command.Build(notifications.NewWatch(), &cf, open),
		experiments.New(&cf, open),
		datasets.New(&cf, open),
		reports.New(&cf, open),
		settings.New(&cf, open),
	} {
		if p, ok := c.(interface{ SetParent(string) }); ok {
			p.SetParent(name)
		}
		root.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(root.Execute(ctx, root, logger)))
}
