package settings

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/store"
)

var ErrConnectionFailed = errors.New("connection test failed")

type TestConnection struct{}

func NewTestConnection() *TestConnection {
	return &TestConnection{}
}

func (*TestConnection) Name() string { return "test-connection" }

func (*TestConnection) Help() command.Help {
	return command.Help{
		Synopsis: "ask the server to test a connection to an endpoint",
		Args:     "<URL>",
		Example:  "{{ .Command }} https://inference.example.com",
	}
}

func (*TestConnection) SetFlags(*flag.FlagSet) {}

func (*TestConnection) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: one URL is required", command.ErrUsage)
	}
	if u, err := url.Parse(args[0]); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute URL", command.ErrUsage, args[0])
	}

	st := store.NewSettings(s.Client, store.WithLogger(s.Logger))
	res, err := st.TestConnection(ctx, args[0])
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%w: %s", ErrConnectionFailed, args[0])
	}
	fmt.Fprintf(s.Out, "%s: ok (latency %d ms)\n", args[0], res.Latency)
	return nil
}

type Cleanup struct {
	yes bool
}

func NewCleanup() *Cleanup {
	return &Cleanup{}
}

func (*Cleanup) Name() string { return "cleanup" }

func (*Cleanup) Help() command.Help {
	return command.Help{
		Synopsis: "delete data older than the retention period",
		Detail: `
Ask the server to clean up the storage. It cannot be undone, so --yes is required.
`,
		Example: "{{ .Command }} --yes",
	}
}

func (c *Cleanup) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "confirm cleanup")
}

func (c *Cleanup) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	if len(args) != 0 {
		return command.ErrUsage
	}
	if !c.yes {
		return fmt.Errorf("%w: --yes is required", command.ErrUsage)
	}
	st := store.NewSettings(s.Client, store.WithLogger(s.Logger))
	res, err := st.CleanupStorage(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "%d items are deleted, %.2f GB freed\n", res.DeletedItems, res.FreedSpace)
	return nil
}
