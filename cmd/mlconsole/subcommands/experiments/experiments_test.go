package experiments_test

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/experiments"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/internal/testenv"
	"github.com/opst/mlconsole/pkg/api/types/events"
	types "github.com/opst/mlconsole/pkg/api/types/experiments"
	"github.com/opst/mlconsole/pkg/api/types/paging"
	"github.com/opst/mlconsole/pkg/rest/mock"
	"github.com/opst/mlconsole/pkg/socket"
)

var created = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func summary(id string, status types.Status) types.Summary {
	return types.Summary{Id: id, Name: "name of " + id, Task: "classification", Status: status, CreatedAt: created}
}

func parse(t *testing.T, c command.Command, args ...string) []string {
	t.Helper()
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return fs.Args()
}

func TestList(t *testing.T) {
	type When struct {
		args []string
	}
	type Then struct {
		query    []paging.Query
		contains []string
	}

	items := []types.Summary{summary("exp-1", types.Running), summary("exp-2", types.Completed)}

	for name, testcase := range map[string]struct {
		when When
		then Then
	}{
		"it prints a table of the first page when no flags are given": {
			when: When{},
			then: Then{
				query:    []paging.Query{{Page: 1, PageSize: 20, Filters: map[string]string{}}},
				contains: []string{"exp-1", "exp-2", "running", "page 1/1 (2 items)"},
			},
		},
		"it passes filters and the page when they are given": {
			when: When{args: []string{"--status", "running", "--task", "classification", "--page", "2", "--page-size", "5"}},
			then: Then{
				query: []paging.Query{
					{Page: 1, PageSize: 5, Filters: map[string]string{"status": "running", "task": "classification"}},
					{Page: 2, PageSize: 5, Filters: map[string]string{"status": "running", "task": "classification"}},
				},
				contains: []string{"exp-1"},
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			client := mock.New(t)
			client.Impl.ListExperiments = func(ctx context.Context, q paging.Query) (paging.Page[types.Summary], error) {
				return paging.Page[types.Summary]{Items: items, Total: 2, Page: q.Page, PageSize: q.PageSize}, nil
			}
			env := testenv.New(t, client)

			testee := experiments.NewList()
			rest := parse(t, testee, testcase.when.args...)
			if err := testee.Execute(context.Background(), env.Logger(), env.Session, rest); err != nil {
				t.Fatal(err)
			}

			if len(client.Calls.ListExperiments) != len(testcase.then.query) {
				t.Fatalf("unexpected queries: %+v", client.Calls.ListExperiments)
			}
			for i, want := range testcase.then.query {
				got := client.Calls.ListExperiments[i]
				if got.Page != want.Page || got.PageSize != want.PageSize || len(got.Filters) != len(want.Filters) {
					t.Errorf("query #%d: (actual, expected) = (%+v, %+v)", i, got, want)
				}
				for k, v := range want.Filters {
					if got.Filters[k] != v {
						t.Errorf("query #%d: filter %s: (actual, expected) = (%s, %s)", i, k, got.Filters[k], v)
					}
				}
			}
			for _, c := range testcase.then.contains {
				if !strings.Contains(env.Out.String(), c) {
					t.Errorf("output does not contain %q:\n%s", c, env.Out)
				}
			}
		})
	}

	t.Run("it prints json when --format json is given", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.ListExperiments = func(ctx context.Context, q paging.Query) (paging.Page[types.Summary], error) {
			return paging.Page[types.Summary]{Items: items, Total: 2, Page: 1, PageSize: 20}, nil
		}
		env := testenv.New(t, client)

		testee := experiments.NewList()
		rest := parse(t, testee, "--format", "json")
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, rest); err != nil {
			t.Fatal(err)
		}
		got := struct {
			Items []types.Summary `json:"items"`
			Total int             `json:"total"`
		}{}
		if err := json.Unmarshal(env.Out.Bytes(), &got); err != nil {
			t.Fatalf("output is not json: %s\n%s", err, env.Out)
		}
		if got.Total != 2 || len(got.Items) != 2 || got.Items[0].Id != "exp-1" {
			t.Errorf("unexpected output: %+v", got)
		}
	})

	t.Run("it returns ErrUsage when the status is unknown", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		testee := experiments.NewList()
		rest := parse(t, testee, "--status", "sleeping")
		err := testee.Execute(context.Background(), env.Logger(), env.Session, rest)
		if err == nil {
			t.Fatal("no error")
		}
	})
}

func TestControl(t *testing.T) {
	t.Run("it starts the experiment and prints its status", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.StartExperiment = func(ctx context.Context, id string) (types.Summary, error) {
			return summary(id, types.Running), nil
		}
		client.Impl.GetExperiment = func(ctx context.Context, id string) (types.Detail, error) {
			return types.Detail{Summary: summary(id, types.Running)}, nil
		}
		env := testenv.New(t, client)

		if err := experiments.NewStart().Execute(context.Background(), env.Logger(), env.Session, []string{"exp-1"}); err != nil {
			t.Fatal(err)
		}
		if got := client.Calls.StartExperiment; len(got) != 1 || got[0] != "exp-1" {
			t.Errorf("unexpected calls: %v", got)
		}
		if got := env.Out.String(); got != "exp-1: running\n" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("it reports the request when the detail cannot be refreshed", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.StopExperiment = func(ctx context.Context, id string) (types.Summary, error) {
			return summary(id, types.Stopped), nil
		}
		client.Impl.GetExperiment = func(ctx context.Context, id string) (types.Detail, error) {
			return types.Detail{}, errors.New("fake error")
		}
		env := testenv.New(t, client)

		if err := experiments.NewStop().Execute(context.Background(), env.Logger(), env.Session, []string{"exp-1"}); err != nil {
			t.Fatal(err)
		}
		if got := env.Out.String(); got != "exp-1: stop requested\n" {
			t.Errorf("unexpected output: %q", got)
		}
		if !strings.Contains(env.Log.String(), "fake error") {
			t.Errorf("error is not logged: %q", env.Log)
		}
	})

	t.Run("it returns the error when the server rejects", func(t *testing.T) {
		client := mock.New(t)
		expected := errors.New("conflict")
		client.Impl.StartExperiment = func(ctx context.Context, id string) (types.Summary, error) {
			return types.Summary{}, expected
		}
		env := testenv.New(t, client)

		err := experiments.NewStart().Execute(context.Background(), env.Logger(), env.Session, []string{"exp-1"})
		if !errors.Is(err, expected) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it returns ErrUsage without EXPERIMENT_ID", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		err := experiments.NewStart().Execute(context.Background(), env.Logger(), env.Session, nil)
		if !errors.Is(err, command.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func progress(seq uint64, id string, epoch int) events.ExperimentProgress {
	return events.ExperimentProgress{
		Envelope:     events.Envelope{Type: events.TypeExperimentProgress, Seq: seq},
		ExperimentId: id,
		Data:         events.ProgressData{Epoch: epoch, TotalEpochs: 3, Loss: 0.5},
	}
}

func status(seq uint64, id string, st types.Status) events.ExperimentStatus {
	return events.ExperimentStatus{
		Envelope:     events.Envelope{Type: events.TypeExperimentStatus, Seq: seq},
		ExperimentId: id,
		Status:       st,
	}
}

type result struct {
	err error
}

func watch(t *testing.T, env *testenv.Env, id string) <-chan result {
	t.Helper()
	done := make(chan result, 1)
	testee := experiments.NewWatch(experiments.WithProgressOut(io.Discard))
	go func() {
		err := testee.Execute(context.Background(), env.Logger(), env.Session, []string{id})
		done <- result{err: err}
	}()
	return done
}

func wait(t *testing.T, done <-chan result) error {
	t.Helper()
	select {
	case r := <-done:
		return r.err
	case <-time.After(3 * time.Second):
		t.Fatal("watch does not return")
		return nil
	}
}

func TestWatch(t *testing.T) {
	running := func(t *testing.T) *mock.MockClient {
		client := mock.New(t)
		client.Impl.GetExperiment = func(ctx context.Context, id string) (types.Detail, error) {
			return types.Detail{
				Summary:  summary(id, types.Running),
				Progress: &types.Progress{CurrentEpoch: 0, TotalEpochs: 3},
			}, nil
		}
		return client
	}

	t.Run("it returns when the experiment completes", func(t *testing.T) {
		env := testenv.New(t, running(t))
		done := watch(t, env, "exp-1")

		env.Conn.WaitSubscribed(t, "experiment:exp-1")
		env.Conn.Push(t, "experiment:exp-1", progress(1, "exp-1", 1))
		env.Conn.Push(t, "experiment:exp-1", progress(2, "exp-1", 2))
		env.Conn.Push(t, "experiment:exp-1", status(3, "exp-1", types.Completed))

		if err := wait(t, done); err != nil {
			t.Fatal(err)
		}
		out := env.Out.String()
		if !strings.HasPrefix(out, "exp-1 (name of exp-1): running\n") {
			t.Errorf("unexpected output: %q", out)
		}
		if !strings.HasSuffix(out, "exp-1: completed\n") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("it ignores status older than progress", func(t *testing.T) {
		env := testenv.New(t, running(t))
		done := watch(t, env, "exp-1")

		env.Conn.WaitSubscribed(t, "experiment:exp-1")
		env.Conn.Push(t, "experiment:exp-1", progress(5, "exp-1", 1))
		env.Conn.Push(t, "experiment:exp-1", status(4, "exp-1", types.Failed))
		env.Conn.Push(t, "experiment:exp-1", status(6, "exp-1", types.Stopped))

		if err := wait(t, done); err != nil {
			t.Fatal(err)
		}
		if strings.Contains(env.Out.String(), "failed") {
			t.Errorf("outdated status is printed: %q", env.Out)
		}
	})

	t.Run("it returns ErrExperimentFailed when the experiment fails", func(t *testing.T) {
		env := testenv.New(t, running(t))
		done := watch(t, env, "exp-1")

		env.Conn.WaitSubscribed(t, "experiment:exp-1")
		env.Conn.Push(t, "experiment:exp-1", status(1, "exp-1", types.Failed))

		if err := wait(t, done); !errors.Is(err, experiments.ErrExperimentFailed) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it returns an error when the event channel is lost", func(t *testing.T) {
		env := testenv.New(t, running(t))
		done := watch(t, env, "exp-1")

		env.Conn.WaitSubscribed(t, "experiment:exp-1")
		env.Conn.Close()

		if err := wait(t, done); !errors.Is(err, socket.ErrClosed) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it does not subscribe when the experiment has terminated already", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.GetExperiment = func(ctx context.Context, id string) (types.Detail, error) {
			return types.Detail{Summary: summary(id, types.Completed)}, nil
		}
		env := testenv.New(t, client)

		if err := wait(t, watch(t, env, "exp-1")); err != nil {
			t.Fatal(err)
		}
		if env.Conn.Subscribed("experiment:exp-1") {
			t.Error("it subscribes")
		}
		if got := env.Out.String(); got != "exp-1 (name of exp-1): completed\n" {
			t.Errorf("unexpected output: %q", got)
		}
	})
}
