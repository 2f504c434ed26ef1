package echoutil_test

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	httptestutil "github.com/opst/mlconsole/internal/testutils/http"
	"github.com/opst/mlconsole/pkg/utils/echoutil"
)

func TestParseLevel(t *testing.T) {
	for name, testcase := range map[string]struct {
		when string
		then log.Lvl
		ok   bool
	}{
		"debug":         {when: "debug", then: log.DEBUG, ok: true},
		"upper case":    {when: "INFO", then: log.INFO, ok: true},
		"empty is warn": {when: "", then: log.WARN, ok: true},
		"error":         {when: "error", then: log.ERROR, ok: true},
		"off":           {when: "off", then: log.OFF, ok: true},
		"unknown":       {when: "verbose", then: log.WARN, ok: false},
	} {
		t.Run(name, func(t *testing.T) {
			got, ok := echoutil.ParseLevel(testcase.when)
			if got != testcase.then || ok != testcase.ok {
				t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, %v)", testcase.when, got, ok, testcase.then, testcase.ok)
			}
		})
	}
}

func TestLogHandlerFunc(t *testing.T) {
	t.Run("it generates a request id when the request has none", func(t *testing.T) {
		e := echo.New()
		e.Logger.SetLevel(log.OFF)
		c, resp := httptestutil.Get(e, "/api/v1/reports")

		handler := echoutil.LogHandlerFunc(func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		})
		if err := handler(c); err != nil {
			t.Fatal(err)
		}
		if resp.Header().Get(echoutil.HeaderRequestId) == "" {
			t.Error("no request id in response")
		}
	})

	t.Run("it echoes the request id given by the client", func(t *testing.T) {
		e := echo.New()
		e.Logger.SetLevel(log.OFF)
		c, resp := httptestutil.Get(
			e, "/api/v1/reports",
			httptestutil.WithHeader(echoutil.HeaderRequestId, "req-1"),
		)

		handler := echoutil.LogHandlerFunc(func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusNotFound)
		})
		if err := handler(c); err == nil {
			t.Error("error from the handler is swallowed")
		}
		if got := resp.Header().Get(echoutil.HeaderRequestId); got != "req-1" {
			t.Errorf("request id = %q", got)
		}
	})
}
