package handlers_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/opst/mlconsole/cmd/mockserver/handlers"
	httptestutil "github.com/opst/mlconsole/internal/testutils/http"
	"github.com/opst/mlconsole/pkg/api/types/settings"
)

func TestSystemHandlers(t *testing.T) {
	t.Run("PUT replaces given sections and GET returns the result", func(t *testing.T) {
		st := newStore()
		before := st.System()

		e := echo.New()
		{
			c, resp := httptestutil.Put(
				e, "/api/v1/settings/system",
				strings.NewReader(`{"general":{"language":"en","timezone":"UTC","theme":"dark"}}`),
			)
			if err := handlers.PutSystemHandler(st)(c); err != nil {
				t.Fatal(err)
			}
			got := settings.System{}
			if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if got.General.Language != "en" || got.General.NotificationsEnabled {
				t.Errorf("general is not replaced: %+v", got.General)
			}
			if got.Training != before.Training {
				t.Errorf("training is changed: %+v", got.Training)
			}
		}
		{
			c, resp := httptestutil.Get(e, "/api/v1/settings/system")
			if err := handlers.GetSystemHandler(st)(c); err != nil {
				t.Fatal(err)
			}
			got := settings.System{}
			if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if got.General.Theme != "dark" {
				t.Errorf("update is not kept: %+v", got.General)
			}
		}
	})

	t.Run("PUT rejects broken json", func(t *testing.T) {
		e := echo.New()
		c, _ := httptestutil.Put(e, "/api/v1/settings/system", strings.NewReader(`{`))
		assertHTTPError(t, handlers.PutSystemHandler(newStore())(c), http.StatusBadRequest)
	})
}

func TestPreferencesHandlers(t *testing.T) {
	t.Run("PUT overwrites only given fields", func(t *testing.T) {
		st := newStore()
		before := st.Preferences()

		e := echo.New()
		c, resp := httptestutil.Put(
			e, "/api/v1/settings/preferences",
			strings.NewReader(`{"items_per_page":50,"default_view":"grid"}`),
		)
		if err := handlers.PutPreferencesHandler(st)(c); err != nil {
			t.Fatal(err)
		}
		got := settings.Preferences{}
		if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}

		expected := before
		expected.ItemsPerPage = 50
		expected.DefaultView = "grid"
		if got != expected {
			t.Errorf("actual = %+v, expected = %+v", got, expected)
		}
		if st.Preferences() != expected {
			t.Errorf("update is not kept: %+v", st.Preferences())
		}
	})
}

func TestTestConnectionHandler(t *testing.T) {
	e := echo.New()
	c, resp := httptestutil.Post(e, "/api/v1/settings/test-connection", strings.NewReader(`{}`))
	if err := handlers.TestConnectionHandler(func() int { return 42 })(c); err != nil {
		t.Fatal(err)
	}
	got := settings.ConnectionTest{}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.Latency != 42 {
		t.Errorf("unexpected result: %+v", got)
	}
}
