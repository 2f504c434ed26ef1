package settings

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/api/types/settings"
	"github.com/opst/mlconsole/pkg/store"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

type Show struct {
	format string
	only   string
}

func NewShow() *Show {
	return &Show{}
}

func (*Show) Name() string { return "show" }

func (*Show) Help() command.Help {
	return command.Help{
		Synopsis: "show system settings and your preferences",
		Example: `
{{ .Command }}
{{ .Command }} --only preferences --format json
`,
	}
}

func (c *Show) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", FormatYAML, "output format. yaml|json")
	f.StringVar(&c.only, "only", "", "show only one of them. system|preferences")
}

type shown struct {
	System      *settings.System      `json:"system,omitempty" yaml:"system,omitempty"`
	Preferences *settings.Preferences `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

func (c *Show) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	if len(args) != 0 {
		return command.ErrUsage
	}
	if c.format != FormatYAML && c.format != FormatJSON {
		return fmt.Errorf("%w: unknown format %q", command.ErrUsage, c.format)
	}
	wantSystem, wantPrefs := true, true
	switch c.only {
	case "":
	case "system":
		wantPrefs = false
	case "preferences":
		wantSystem = false
	default:
		return fmt.Errorf("%w: --only should be system or preferences", command.ErrUsage)
	}

	st := store.NewSettings(s.Client, store.WithLogger(s.Logger))
	eg, ctx := errgroup.WithContext(ctx)
	if wantSystem {
		eg.Go(func() error { return st.FetchSystem(ctx) })
	}
	if wantPrefs {
		eg.Go(func() error { return st.FetchPreferences(ctx) })
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	out := shown{}
	if sys, ok := st.System(); ok && wantSystem {
		out.System = &sys
	}
	if p, ok := st.Preferences(); ok && wantPrefs {
		out.Preferences = &p
	}

	if c.format == FormatJSON {
		enc := json.NewEncoder(s.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	enc := yaml.NewEncoder(s.Out)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
