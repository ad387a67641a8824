package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budgetwise/internal/backend"
	"budgetwise/internal/config"
	applog "budgetwise/internal/log"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BUDGETWISE_CLI_TEST=loaded\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("BUDGETWISE_CLI_TEST") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("BUDGETWISE_CLI_TEST"); got != "loaded" {
		t.Errorf("env = %q, want loaded", got)
	}

	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("empty path: %v", err)
	}
}

func TestSetupLogger(t *testing.T) {
	if _, err := SetupLogger("loud", false, io.Discard); err == nil {
		t.Error("expected an error for an unknown level")
	}

	logger, err := SetupLogger("warn", true, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if !logger.Enabled(context.Background(), -4) {
		t.Error("debug flag should enable the debug level")
	}
}

func TestReadTokenFromPipe(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "line", input: "abc123\nignored\n", want: "abc123"},
		{name: "no newline", input: "  tok  ", want: "tok"},
		{name: "empty", input: "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "token")
			if err := os.WriteFile(path, []byte(tt.input), 0600); err != nil {
				t.Fatal(err)
			}
			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			got, err := ReadToken(f, io.Discard, "token: ")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandUserMemoryBackend(t *testing.T) {
	cfg := &config.Config{
		DataBackend:   "memory",
		StaticSubject: "demo-user",
	}
	logger := applog.New(applog.Config{Output: io.Discard})

	res, err := OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}

	u, err := CommandUser(cfg, res.Provider, "", "")
	if err != nil {
		t.Fatalf("CommandUser: %v", err)
	}
	if u.Subject != "demo-user" {
		t.Errorf("subject = %q, want demo-user", u.Subject)
	}
	if _, err := u.Backend.ListTransactions(context.Background()); err != nil {
		t.Errorf("ListTransactions: %v", err)
	}

	other, err := CommandUser(cfg, res.Provider, "someone-else", "")
	if err != nil {
		t.Fatal(err)
	}
	if other.Subject != "someone-else" {
		t.Errorf("subject = %q", other.Subject)
	}
}

func TestOpenBackendRejectsUnknownType(t *testing.T) {
	cfg := &config.Config{DataBackend: string(backend.BackendType("bogus"))}
	if _, err := OpenBackend(context.Background(), cfg, applog.New(applog.Config{Output: io.Discard})); err == nil {
		t.Error("expected an error")
	}
}

func TestGracefulShutdown(t *testing.T) {
	logger := applog.New(applog.Config{Output: io.Discard})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called bool
	err := GracefulShutdown(ctx, logger, time.Second, func(ctx context.Context) error {
		called = true
		if _, ok := ctx.Deadline(); !ok {
			t.Error("shutdown context has no deadline")
		}
		return nil
	})
	if err != nil || !called {
		t.Fatalf("err = %v, called = %v", err, called)
	}

	boom := errors.New("boom")
	err = GracefulShutdown(ctx, logger, time.Second, func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
