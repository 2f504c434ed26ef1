// Package command builds subcommands.Command from mlconsole commands.
//
// A Command receives a Session opened from the profile selected by CommonFlags.
package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/template"

	"github.com/google/subcommands"
	"github.com/opst/mlconsole/pkg/configs/console"
)

// Help message components.
type Help struct {
	// short description of the command.
	Synopsis string

	// positional arguments, like "<EXPERIMENT_ID>".
	Args string

	// example of the command. "{{ .Command }}" is replaced with the full command name.
	Example string

	// long description of the command.
	Detail string
}

// Command is a command of mlconsole CLI.
//
// To convert Command to subcommands.Command, use Build.
type Command interface {
	// Command name.
	Name() string

	Help() Help

	// SetFlags registers flags specific to the command.
	SetFlags(*flag.FlagSet)

	// Execute runs the command with positional arguments.
	//
	// Return ErrUsage (or an error wrapping it) for invalid arguments.
	Execute(ctx context.Context, l *log.Logger, s *Session, args []string) error
}

// ErrUsage is returned when the command is invoked with invalid flags/arguments.
var ErrUsage = errors.New("usage error")

// EnvProfile selects the profile when --profile is not given.
const EnvProfile = "MLCONSOLE_PROFILE"

type CommonFlags struct {
	Profile      string
	ProfileStore string
	Verbose      bool
}

// DefaultCommonFlags returns the profile "default" (or $MLCONSOLE_PROFILE) in ~/.mlconsole/profile .
func DefaultCommonFlags() (CommonFlags, error) {
	store, err := console.DefaultStorePath()
	if err != nil {
		return CommonFlags{}, err
	}
	profile := "default"
	if p, ok := os.LookupEnv(EnvProfile); ok && p != "" {
		profile = p
	}
	return CommonFlags{Profile: profile, ProfileStore: store}, nil
}

func (cf *CommonFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cf.Profile, "profile", cf.Profile, "name of profile to use")
	f.StringVar(&cf.ProfileStore, "profile-store", cf.ProfileStore, "path to profile store file")
	f.BoolVar(&cf.Verbose, "verbose", cf.Verbose, "show diagnostics of the client library")
}

// Opener opens a Session for a command. Tests replace it to skip profile loading.
type Opener func(cf CommonFlags, l *log.Logger) (*Session, error)

// OpenProfile is the Opener reading profiles from the profile store.
func OpenProfile(cf CommonFlags, l *log.Logger) (*Session, error) {
	store, err := console.LoadProfileStore(cf.ProfileStore)
	if err != nil {
		if errors.Is(err, console.ErrProfileStoreNotFound) {
			return nil, fmt.Errorf(
				"%w\nCreate it with a profile named %q. Ask your admin for endpoints and a token",
				err, cf.Profile,
			)
		}
		return nil, fmt.Errorf("profile store (%s) can not be loaded: %w", cf.ProfileStore, err)
	}
	prof, err := store.Get(cf.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, cf.ProfileStore)
	}
	return Open(prof, l, cf.Verbose)
}

type fillUsage struct {
	// full command name
	Command string
}

func (f fillUsage) Fill(tpl string) string {
	t, err := template.New("").Parse(tpl)
	if err != nil {
		return tpl + "(templating error: " + err.Error() + ")\n"
	}
	sb := new(strings.Builder)
	if err := t.Execute(sb, f); err != nil {
		return tpl + "(templating error: " + err.Error() + ")\n"
	}
	return sb.String()
}

// Build wraps c as subcommands.Command.
func Build(c Command, common *CommonFlags, open Opener) subcommands.Command {
	return &command{c: c, common: common, open: open}
}

type command struct {
	c      Command
	common *CommonFlags
	open   Opener
	parent string
}

var _ subcommands.Command = &command{}

func (c *command) SetParent(parent string) {
	c.parent = parent
}

func (c *command) Name() string {
	return c.c.Name()
}

func (c *command) Synopsis() string {
	return c.c.Help().Synopsis
}

func (c *command) fullname() string {
	if c.parent == "" {
		return c.Name()
	}
	return c.parent + " " + c.Name()
}

func (c *command) Usage() string {
	return BuildUsageMessage(c.fullname(), c.c.Help())
}

// BuildUsageMessage formats help. Flags are appended by subcommands.
func BuildUsageMessage(command string, help Help) string {
	indent := func(s string) string {
		return "  " + strings.ReplaceAll(s, "\n", "\n  ")
	}

	message := []string{
		strings.TrimSpace("Usage: " + command + " [flags] " + help.Args),
		"",
	}
	if help.Detail != "" {
		message = append(message, indent(strings.TrimSpace(help.Detail)))
	} else {
		message = append(message, indent(strings.TrimSpace(help.Synopsis)))
	}
	if help.Example != "" {
		message = append(message, "", "Example:", indent(strings.TrimSpace(help.Example)))
	}
	message = append(message, "", "Flags:", "")

	return fillUsage{Command: command}.Fill(strings.Join(message, "\n"))
}

func (c *command) SetFlags(f *flag.FlagSet) {
	c.c.SetFlags(f)
	c.common.SetFlags(f)
}

func (c *command) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	logger, _, ok := extract[*log.Logger](args)
	if !ok {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	logger = log.New(
		logger.Writer(),
		"["+strings.Trim(strings.TrimSpace(logger.Prefix()), "[]")+" "+c.Name()+"] ",
		logger.Flags(),
	)

	s, err := c.open(*c.common, logger)
	if err != nil {
		logger.Println(err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	if err := c.c.Execute(ctx, logger, s, f.Args()); err != nil {
		logger.Println(err)
		if errors.Is(err, ErrUsage) {
			if p, _, ok := extract[*subcommands.Commander](args); ok {
				p.ExplainCommand(os.Stderr, c)
			}
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// Commander is a group of commands, like "experiments".
//
// This is also a subcommands.Command.
type Commander struct {
	name     string
	help     Help
	commands []subcommands.Command
	parent   string
}

func NewCommander(name string, help Help) *Commander {
	return &Commander{name: name, help: help}
}

func (g *Commander) Register(cmd subcommands.Command) {
	g.commands = append(g.commands, cmd)
}

func (g *Commander) SetParent(parent string) {
	g.parent = parent
}

func (g *Commander) Name() string {
	return g.name
}

func (*Commander) SetFlags(*flag.FlagSet) {}

func (g *Commander) Synopsis() string {
	return g.help.Synopsis
}

func (g *Commander) Usage() string {
	s := g.help.Synopsis
	if g.help.Detail != "" {
		s = g.help.Detail
	}
	usage := []string{strings.TrimSpace(s)}
	if len(g.commands) != 0 {
		usage = append(usage, "", "Subcommands:")
		for _, cmd := range g.commands {
			usage = append(usage, fmt.Sprintf("\t%s\t%s", cmd.Name(), cmd.Synopsis()))
		}
	}

	name := g.name
	if g.parent != "" {
		name = g.parent + " " + name
	}
	return fillUsage{Command: name}.Fill(strings.Join(usage, "\n") + "\n\n")
}

func (g *Commander) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	_, rest, _ := extract[*subcommands.Commander](args)

	name := g.name
	if g.parent != "" {
		name = g.parent + " " + name
	}
	commander := subcommands.NewCommander(f, name)
	commander.Register(subcommands.HelpCommand(), "help")
	commander.Register(subcommands.FlagsCommand(), "help")
	commander.Register(subcommands.CommandsCommand(), "help")
	for _, cmd := range g.commands {
		if c, ok := cmd.(interface{ SetParent(string) }); ok {
			c.SetParent(name)
		}
		commander.Register(cmd, "")
	}
	return commander.Execute(ctx, append([]any{commander}, rest...)...)
}

// extract finds the first T in args, and returns it with the others.
func extract[T any](args []any) (T, []any, bool) {
	var value T
	var rest []any
	for i, arg := range args {
		if v, ok := arg.(T); ok {
			rest = append(rest, args[i+1:]...)
			return v, rest, true
		}
		rest = append(rest, arg)
	}
	return value, rest, false
}
