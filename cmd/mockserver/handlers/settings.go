package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/mlconsole/pkg/api/types/errors"
	"github.com/opst/mlconsole/pkg/api/types/settings"
)

func GetSystemHandler(st *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, st.System())
	}
}

// PutSystemHandler replaces sections of the system settings present in the request.
func PutSystemHandler(st *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		change := settings.SystemChange{}
		if err := json.NewDecoder(c.Request().Body).Decode(&change); err != nil {
			return apierr.BadRequest("can not understand the requested json", err)
		}
		return c.JSON(http.StatusOK, st.UpdateSystem(change))
	}
}

func GetPreferencesHandler(st *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, st.Preferences())
	}
}

// PutPreferencesHandler overwrites fields of the preferences present in the request.
func PutPreferencesHandler(st *Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		change := settings.PreferencesChange{}
		if err := json.NewDecoder(c.Request().Body).Decode(&change); err != nil {
			return apierr.BadRequest("can not understand the requested json", err)
		}
		return c.JSON(http.StatusOK, st.UpdatePreferences(change))
	}
}

// TestConnectionHandler always succeeds, with a latency taken from latency().
func TestConnectionHandler(latency func() int) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, settings.ConnectionTest{
			Success: true,
			Latency: latency(),
		})
	}
}
