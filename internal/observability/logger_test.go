package observability

import (
	"testing"

	"go.uber.org/zap"
)

func TestInitCLILogger(t *testing.T) {
	InitCLILogger("handlescan-test", false)

	if CLILogger == nil {
		t.Fatal("CLILogger is nil after initialization")
	}

	// Should not panic
	CLILogger.Info("test message from CLI logger")
}

func TestInitCLILoggerVerbose(t *testing.T) {
	InitCLILogger("handlescan-test", true)

	if CLILogger == nil {
		t.Fatal("CLILogger is nil after verbose initialization")
	}

	CLILogger.Debug("debug message should be emitted in verbose mode")
}

func TestInitServerLogger(t *testing.T) {
	InitServerLogger("handlescan-test", "info")

	if ServerLogger == nil {
		t.Fatal("ServerLogger is nil after initialization")
	}

	ServerLogger.Info("test message from server logger",
		zap.String("component", "test"),
		zap.Int("check_count", 3),
	)
}

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "TRACE"},
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}

	for _, tc := range cases {
		if got := parseLogLevel(tc.in); got != tc.want {
			t.Errorf("parseLogLevel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
