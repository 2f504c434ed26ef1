package experiments

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/store"
)

// Control starts or stops an experiment.
type Control struct {
	name     string
	synopsis string
	do       func(e *store.Experiments, ctx context.Context, id string) error
}

func NewStart() *Control {
	return &Control{
		name:     "start",
		synopsis: "start training of an experiment",
		do:       (*store.Experiments).Start,
	}
}

func NewStop() *Control {
	return &Control{
		name:     "stop",
		synopsis: "stop training of an experiment",
		do:       (*store.Experiments).Stop,
	}
}

func (c *Control) Name() string { return c.name }

func (c *Control) Help() command.Help {
	return command.Help{
		Synopsis: c.synopsis,
		Args:     "<EXPERIMENT_ID>",
		Example:  "{{ .Command }} exp-001",
	}
}

func (*Control) SetFlags(*flag.FlagSet) {}

func (c *Control) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	id, err := oneId(args)
	if err != nil {
		return err
	}

	exps := store.NewExperiments(s.Client, store.WithLogger(s.Logger))
	if err := c.do(exps, ctx, id); err != nil {
		return err
	}

	if d, ok := exps.Selected(); ok && d.Id == id {
		fmt.Fprintf(s.Out, "%s: %s\n", id, d.Status)
		return nil
	}
	if err := exps.Error(); err != nil {
		l.Printf("%s is accepted, but its status is unknown: %s", c.name, err)
	}
	fmt.Fprintf(s.Out, "%s: %s requested\n", id, c.name)
	return nil
}
