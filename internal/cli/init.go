// Package cli provides the start-up helpers shared by the budgetwise
// commands: env loading, config, logging, backend wiring and shutdown.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"budgetwise/internal/backend"
	"budgetwise/internal/config"
	applog "budgetwise/internal/log"
	"budgetwise/internal/services"
)

// SetupLogger builds the process logger at the configured level and makes
// it the slog default. debug forces the debug level.
func SetupLogger(level string, debug bool, out io.Writer) (*applog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if debug {
		lvl = slog.LevelDebug
	}
	logger := applog.New(applog.Config{
		Level:     lvl,
		Component: applog.ComponentApp,
		Output:    out,
	})
	applog.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig(configFile string) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenBackend creates the data backend selected by DATA_BACKEND.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.ProviderResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateProvider(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// CommandUser is the user a one-shot command acts for. The remote backend
// needs a bearer token: an explicit one wins, then STATIC_BEARER_TOKEN,
// then an interactive prompt.
func CommandUser(cfg *config.Config, provider backend.Provider, subject, token string) (services.User, error) {
	if subject == "" {
		subject = cfg.StaticSubject
	}
	if token == "" {
		token = cfg.StaticBearerToken
	}
	if token == "" && cfg.DataBackend == string(backend.RemoteBackend) {
		var err error
		token, err = ReadToken(os.Stdin, os.Stderr, "Bearer token: ")
		if err != nil {
			return services.User{}, err
		}
	}

	principal := backend.Principal{
		Subject: subject,
		Email:   cfg.StaticEmail,
		Name:    cfg.StaticName,
		Tokens:  oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
	}
	return services.User{Subject: subject, Backend: provider.For(principal)}, nil
}

// ReadToken prompts for a secret. On a terminal the input is not echoed;
// otherwise the first line of in is used.
func ReadToken(in *os.File, prompt io.Writer, label string) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, label)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return validToken(string(b))
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read token: %w", err)
	}
	return validToken(line)
}

// LoadTokenFile reads the access token from a JSON token file written by
// SaveTokenFile.
func LoadTokenFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return "", fmt.Errorf("parse token file %s: %w", path, err)
	}
	if !tok.Expiry.IsZero() && tok.Expiry.Before(time.Now()) {
		return "", fmt.Errorf("token in %s expired at %s", path, tok.Expiry.Format(time.RFC3339))
	}
	return validToken(tok.AccessToken)
}

// SaveTokenFile writes tok as JSON readable only by the owner.
func SaveTokenFile(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

func validToken(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty bearer token")
	}
	return s, nil
}

// GracefulShutdown blocks until ctx is cancelled or SIGINT/SIGTERM arrives,
// then runs shutdown bounded by timeout.
func GracefulShutdown(ctx context.Context, logger *applog.Logger, timeout time.Duration, shutdown func(context.Context) error) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("Shutdown timeout reached", "timeout", timeout)
		}
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
