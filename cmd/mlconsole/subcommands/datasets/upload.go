package datasets

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/pkg/api/types/datasets"
	"github.com/opst/mlconsole/pkg/store"
)

const uploadBar pb.ProgressBarTemplate = `{{ string . "prefix" }}{{ bar . }} {{ percent . }}`

type Upload struct {
	name      string
	typ       string
	direction string
	scene     string

	progressOut io.Writer
}

type UploadOption func(*Upload) *Upload

// WithProgressOut sets where the progress bar is drawn. Default is stderr.
func WithProgressOut(w io.Writer) UploadOption {
	return func(u *Upload) *Upload {
		u.progressOut = w
		return u
	}
}

func NewUpload(opts ...UploadOption) *Upload {
	u := &Upload{progressOut: os.Stderr}
	for _, o := range opts {
		u = o(u)
	}
	return u
}

func (*Upload) Name() string { return "upload" }

func (*Upload) Help() command.Help {
	return command.Help{
		Synopsis: "upload a dataset file",
		Args:     "<FILE>",
		Detail: `
Upload FILE as a new dataset, and print its id.

The quality gate of the dataset runs after the upload. Use "datasets watch" to follow it.
`,
		Example: "{{ .Command }} --type human --direction en-ja --scene chat ./pairs.jsonl",
	}
}

func (c *Upload) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "name of the dataset. default is the file name")
	f.StringVar(&c.typ, "type", string(datasets.Human), "type of the dataset. human|synthetic|mixed")
	f.StringVar(&c.direction, "direction", "", "language direction, like en-ja")
	f.StringVar(&c.scene, "scene", "", "scene of sentences")
}

func (c *Upload) Execute(ctx context.Context, l *log.Logger, s *command.Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: one FILE is required", command.ErrUsage)
	}
	typ, err := asType(c.typ)
	if err != nil {
		return err
	}
	filename := args[0]
	name := c.name
	if name == "" {
		name = filepath.Base(filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return err
	}

	ds := store.NewDatasets(s.Client, store.WithLogger(s.Logger))

	bar := uploadBar.New(100)
	bar.SetWriter(c.progressOut)
	bar.Set("prefix", filepath.Base(filename)+" ")
	bar.Start()
	stop := ds.OnChange(func() { bar.SetCurrent(int64(ds.UploadProgress())) })

	created, err := ds.Upload(ctx, filepath.Base(filename), f, stat.Size(), datasets.UploadMetadata{
		Name:              name,
		Type:              typ,
		LanguageDirection: c.direction,
		Scene:             c.scene,
	})
	stop()
	bar.Finish()
	if err != nil {
		return err
	}

	fmt.Fprintf(s.Out, "%s: %s (%s)\n", created.Id, created.Name, created.Status)
	return nil
}
