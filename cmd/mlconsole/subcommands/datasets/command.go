// Package datasets holds "mlconsole datasets" commands.
package datasets

import (
	"fmt"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/api/types/datasets"
)

func New(cf *command.CommonFlags, open command.Opener) *command.Commander {
	g := command.NewCommander("datasets", command.Help{
		Synopsis: "list, upload and watch quality gates of datasets",
	})
	g.Register(command.Build(NewList(), cf, open))
	g.Register(command.Build(NewUpload(), cf, open))
	g.Register(command.Build(NewWatch(), cf, open))
	return g
}

func asStatus(s string) (datasets.Status, error) {
	switch st := datasets.Status(s); st {
	case datasets.Draft, datasets.Passed, datasets.Blocked:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown dataset status: %q", command.ErrUsage, s)
	}
}

func asType(s string) (datasets.Type, error) {
	switch t := datasets.Type(s); t {
	case datasets.Human, datasets.Synthetic, datasets.Mixed:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown dataset type: %q", command.ErrUsage, s)
	}
}
