package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetwise/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the session store",
}

var sessionKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an age identity for SESSION_AGE_IDENTITY",
	Long: `Generate an age X25519 identity. Set it as SESSION_AGE_IDENTITY so
OAuth tokens sealed in the session store survive a restart.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		id, err := session.GenerateIdentity()
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var sessionPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired sessions and abandoned logins",
	Args:  cobra.NoArgs,
	RunE:  runSessionPurge,
}

func init() {
	sessionCmd.AddCommand(sessionKeygenCmd)
	sessionCmd.AddCommand(sessionPurgeCmd)
}

func runSessionPurge(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	sealer, err := session.NewSealer(cfg.SessionAgeIdentity)
	if err != nil {
		return err
	}
	store, err := session.Open(cfg.SessionDBPath, sealer, cfg.SessionTTL)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.PurgeExpired(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("Purged expired sessions", "path", cfg.SessionDBPath, "count", n)
	fmt.Printf("Removed %d expired rows\n", n)
	return nil
}
