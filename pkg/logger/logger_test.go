package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/opst/mlconsole/pkg/logger"
)

func TestWithLevel(t *testing.T) {
	buf := new(bytes.Buffer)
	l := logger.WithLevel("socket", buf, log.WARN)

	l.Infof("connected to %s", "ws://example.com")
	l.Warnf("emit %s while disconnected", "subscribe")

	out := buf.String()
	if strings.Contains(out, "connected to") {
		t.Errorf("message below the level is written: %s", out)
	}
	if !strings.Contains(out, "emit subscribe while disconnected") {
		t.Errorf("message is not written: %s", out)
	}
	if !strings.Contains(out, "socket") {
		t.Errorf("prefix is not written: %s", out)
	}
}

func TestNull(t *testing.T) {
	l := logger.Null()
	l.Errorf("nothing should happen")
	if l.Level() != log.OFF {
		t.Errorf("level = %v", l.Level())
	}
}
