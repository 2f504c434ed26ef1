package echoutil

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const HeaderRequestId = echo.HeaderXRequestID

// LogHandlerFunc logs each request and its response.
//
// Each request is tagged with a request id, taken from the X-Request-Id header
// or generated when the header is missing. The id is echoed back in the response.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		rid := req.Header.Get(HeaderRequestId)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Response().Header().Set(HeaderRequestId, rid)

		begin := time.Now()
		c.Logger().Infof("< [%s] %s %s", rid, req.Method, req.URL)

		err := next(c)

		c.Logger().Infof(
			"> [%s] status = %d in %v / error = %v",
			rid, c.Response().Status, time.Since(begin), err,
		)
		return err
	}
}

// ParseLevel maps a level name (debug, info, warn, error, off) to a log level.
//
// It returns false for unknown names.
func ParseLevel(loglevel string) (log.Lvl, bool) {
	switch strings.ToLower(loglevel) {
	case "debug":
		return log.DEBUG, true
	case "info":
		return log.INFO, true
	case "warn", "":
		return log.WARN, true
	case "error":
		return log.ERROR, true
	case "off":
		return log.OFF, true
	default:
		return log.WARN, false
	}
}

func SetLevel(e *echo.Echo, loglevel string) {
	lvl, ok := ParseLevel(loglevel)
	e.Logger.SetLevel(lvl)
	if !ok {
		e.Logger.Warnf("unknown loglevel: %s . fall-backed to warn", loglevel)
	}
}
