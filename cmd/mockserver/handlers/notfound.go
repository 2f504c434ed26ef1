package handlers

import (
	"fmt"

	"github.com/labstack/echo/v4"
	apierr "github.com/opst/mlconsole/pkg/api/types/errors"
)

// NotFoundHandler responds 404 for endpoints which the mock does not implement.
func NotFoundHandler(c echo.Context) error {
	return apierr.NotFound(fmt.Sprintf(
		"endpoint %s is not implemented yet", c.Request().URL.Path,
	))
}
