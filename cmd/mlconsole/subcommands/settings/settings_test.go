package settings_test

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"strings"
	"testing"

	"github.com/opst/mlconsole/cmd/mlconsole/commandline/command"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/internal/testenv"
	"github.com/opst/mlconsole/cmd/mlconsole/subcommands/settings"
	types "github.com/opst/mlconsole/pkg/api/types/settings"
	"github.com/opst/mlconsole/pkg/rest/mock"
	"gopkg.in/yaml.v3"
)

func parse(t *testing.T, c command.Command, args ...string) []string {
	t.Helper()
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return fs.Args()
}

var system = types.System{
	General: types.General{Language: "ja", Timezone: "Asia/Tokyo"},
	Storage: types.Storage{DataRetentionDays: 30, CurrentUsageGB: 12.5},
}

var preferences = types.Preferences{UserId: "user-001", DisplayName: "Alice", ItemsPerPage: 20}

func ready(t *testing.T) *mock.MockClient {
	client := mock.New(t)
	client.Impl.GetSystemSettings = func(ctx context.Context) (types.System, error) { return system, nil }
	client.Impl.GetPreferences = func(ctx context.Context) (types.Preferences, error) { return preferences, nil }
	return client
}

type shown struct {
	System      *types.System      `json:"system" yaml:"system"`
	Preferences *types.Preferences `json:"preferences" yaml:"preferences"`
}

func TestShow(t *testing.T) {
	t.Run("it prints both in yaml by default", func(t *testing.T) {
		env := testenv.New(t, ready(t))
		testee := settings.NewShow()
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, parse(t, testee)); err != nil {
			t.Fatal(err)
		}
		got := shown{}
		if err := yaml.Unmarshal(env.Out.Bytes(), &got); err != nil {
			t.Fatalf("output is not yaml: %s\n%s", err, env.Out)
		}
		if got.System == nil || got.System.General != system.General || got.System.Storage != system.Storage {
			t.Errorf("unexpected system: %+v", got.System)
		}
		if got.Preferences == nil || *got.Preferences != preferences {
			t.Errorf("unexpected preferences: %+v", got.Preferences)
		}
	})

	t.Run("it prints only preferences in json", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.GetPreferences = func(ctx context.Context) (types.Preferences, error) { return preferences, nil }
		env := testenv.New(t, client)

		testee := settings.NewShow()
		args := parse(t, testee, "--only", "preferences", "--format", "json")
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, args); err != nil {
			t.Fatal(err)
		}
		got := shown{}
		if err := json.Unmarshal(env.Out.Bytes(), &got); err != nil {
			t.Fatalf("output is not json: %s\n%s", err, env.Out)
		}
		if got.System != nil {
			t.Errorf("system is printed: %+v", got.System)
		}
		if got.Preferences == nil || *got.Preferences != preferences {
			t.Errorf("unexpected preferences: %+v", got.Preferences)
		}
		if client.Calls.GetSystemSettings != 0 {
			t.Errorf("system settings are fetched")
		}
	})

	t.Run("it returns the error when fetching fails", func(t *testing.T) {
		expected := errors.New("fake error")
		client := ready(t)
		client.Impl.GetSystemSettings = func(ctx context.Context) (types.System, error) { return types.System{}, expected }
		env := testenv.New(t, client)

		testee := settings.NewShow()
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, parse(t, testee)); !errors.Is(err, expected) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it returns ErrUsage for unknown --only", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		testee := settings.NewShow()
		args := parse(t, testee, "--only", "everything")
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, args); !errors.Is(err, command.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestTestConnection(t *testing.T) {
	for name, testcase := range map[string]struct {
		result   types.ConnectionTest
		wantErr  error
		wantOut  string
		argument string
	}{
		"it prints latency when the connection succeeds": {
			result:   types.ConnectionTest{Success: true, Latency: 42},
			argument: "https://example.com",
			wantOut:  "https://example.com: ok (latency 42 ms)\n",
		},
		"it returns ErrConnectionFailed when the connection fails": {
			result:   types.ConnectionTest{Success: false},
			argument: "https://example.com",
			wantErr:  settings.ErrConnectionFailed,
		},
	} {
		t.Run(name, func(t *testing.T) {
			client := mock.New(t)
			client.Impl.TestConnection = func(ctx context.Context, url string) (types.ConnectionTest, error) {
				return testcase.result, nil
			}
			env := testenv.New(t, client)

			err := settings.NewTestConnection().Execute(context.Background(), env.Logger(), env.Session, []string{testcase.argument})
			if !errors.Is(err, testcase.wantErr) {
				t.Errorf("unexpected error: %v", err)
			}
			if env.Out.String() != testcase.wantOut {
				t.Errorf("unexpected output: %q", env.Out)
			}
		})
	}

	t.Run("it returns ErrUsage for relative URL", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		err := settings.NewTestConnection().Execute(context.Background(), env.Logger(), env.Session, []string{"example.com"})
		if !errors.Is(err, command.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestCleanup(t *testing.T) {
	t.Run("it requires --yes", func(t *testing.T) {
		env := testenv.New(t, mock.New(t))
		testee := settings.NewCleanup()
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, parse(t, testee)); !errors.Is(err, command.ErrUsage) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it cleans up the storage", func(t *testing.T) {
		client := ready(t)
		client.Impl.CleanupStorage = func(ctx context.Context) (types.Cleanup, error) {
			return types.Cleanup{DeletedItems: 3, FreedSpace: 1.5}, nil
		}
		env := testenv.New(t, client)

		testee := settings.NewCleanup()
		if err := testee.Execute(context.Background(), env.Logger(), env.Session, parse(t, testee, "--yes")); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(env.Out.String(), "3 items are deleted, 1.50 GB freed") {
			t.Errorf("unexpected output: %q", env.Out)
		}
	})
}
