package cmd

import (
	"context"
	"strings"
	"testing"

	"linecat/config"
)

func TestExecute_NoArgsPrintsUsage(t *testing.T) {
	if err := Execute(context.Background(), nil); err != nil {
		t.Fatalf("no-args run should print usage and succeed, got %v", err)
	}
}

func TestExecute_Version(t *testing.T) {
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("--version failed: %v", err)
	}
}

func TestExecute_FamilyConflict(t *testing.T) {
	err := Execute(context.Background(), []string{"-4", "-6", "127.0.0.1", "9999"})
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("want mutually-exclusive error, got %v", err)
	}
}

func TestExecute_ConnectRequiresHost(t *testing.T) {
	err := Execute(context.Background(), []string{"-p", "9999"})
	if err == nil || !strings.Contains(err.Error(), "host required") {
		t.Errorf("want host-required error, got %v", err)
	}
}

func TestExecute_BadPort(t *testing.T) {
	err := Execute(context.Background(), []string{"127.0.0.1", "99999"})
	if err == nil || !strings.Contains(err.Error(), "port") {
		t.Errorf("want port error, got %v", err)
	}
}

func TestParsePositional(t *testing.T) {
	tests := []struct {
		name     string
		listen   bool
		args     []string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"listen no args keeps defaults", true, nil, config.DefaultHost, config.DefaultPort, false},
		{"listen with host", true, []string{"0.0.0.0"}, "0.0.0.0", config.DefaultPort, false},
		{"host and port", false, []string{"example.com", "4242"}, "example.com", 4242, false},
		{"connect without host", false, nil, "", 0, true},
		{"bad port", false, []string{"h", "abc"}, "", 0, true},
		{"too many args", false, []string{"h", "1", "2"}, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Listen = tt.listen
			err := parsePositional(cfg, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if cfg.Host != tt.wantHost || cfg.Port != tt.wantPort {
				t.Errorf("got %s:%d, want %s:%d", cfg.Host, cfg.Port, tt.wantHost, tt.wantPort)
			}
		})
	}
}
