package log

import (
	"bytes"
	"testing"

	"github.com/tidwall/gjson"
)

func TestConfigure(t *testing.T) {

	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "greeter"})

	logger := WithComponent("runtime")
	logger.Info().Str("signal", "SIGTERM").Msg("graceful shutdown in progress")

	out := buf.String()

	tt := []struct {
		field string
		want  string
	}{
		{field: "service", want: "greeter"},
		{field: "component", want: "runtime"},
		{field: "signal", want: "SIGTERM"},
		{field: "message", want: "graceful shutdown in progress"},
	}

	for _, tc := range tt {
		if got := gjson.Get(out, tc.field).String(); got != tc.want {
			t.Errorf("expected %v %q, got %q", tc.field, tc.want, got)
		}
	}

	if gjson.Get(out, "time").Exists() {
		t.Errorf("expected no timestamp, got one: %v", out)
	}

	// a second Configure must not displace the first
	var other bytes.Buffer
	Configure(Config{Output: &other})
	baseLogger := Base()
	baseLogger.Info().Msg("still here")
	if other.Len() != 0 {
		t.Errorf("reconfiguration replaced the logger")
	}
}
