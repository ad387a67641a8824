package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"budgetwise/internal/auth"
	"budgetwise/internal/cli"
)

var (
	tokenOut          string
	tokenRedirectPort string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign in with the identity provider and save a bearer token",
	Long: `Run the OAuth authorization-code flow from the terminal and save the
token for the one-shot commands (--token-file). The local redirect URI
http://localhost:<port>/callback must be registered with the provider.

Example:
  budgetwise token -o token.json
  budgetwise summary --token-file token.json`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenOut, "output", "o", "token.json", "where to write the token")
	tokenCmd.Flags().StringVar(&tokenRedirectPort, "redirect-port", "8085", "local port for the OAuth redirect")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	if cfg.AuthMode != auth.ModeOAuth {
		return errors.New("AUTH_MODE must be oauth to request a token")
	}

	oc := auth.OAuthConfig(cfg)
	oc.RedirectURL = "http://localhost:" + tokenRedirectPort + "/callback"

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	ln, err := net.Listen("tcp", "localhost:"+tokenRedirectPort)
	if err != nil {
		return fmt.Errorf("listen for redirect: %w", err)
	}

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)
	deliver := func(r result) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "Sign-in failed: "+q.Get("error"), http.StatusBadRequest)
			deliver(result{err: fmt.Errorf("provider returned %s", q.Get("error"))})
		case q.Get("state") != state:
			http.Error(w, "Sign-in state mismatch", http.StatusBadRequest)
		default:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
			deliver(result{code: q.Get("code")})
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	fmt.Fprintf(os.Stderr, "Open this URL to sign in:\n%s\n", oc.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier)))

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	var res result
	select {
	case res = <-results:
	case <-ctx.Done():
		return errors.New("authorization timed out")
	}
	if res.err != nil {
		return res.err
	}

	tok, err := oc.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}
	if err := cli.SaveTokenFile(tokenOut, tok); err != nil {
		return err
	}
	logger.Info("Saved bearer token", "path", tokenOut, "expiry", tok.Expiry)
	fmt.Fprintf(os.Stderr, "Saved token to %s\n", tokenOut)
	return nil
}
