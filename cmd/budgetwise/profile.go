package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"budgetwise/internal/core"
)

var (
	profileName  string
	profileEmail string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the user's profile in the backend directory",
	Args:  cobra.NoArgs,
	RunE:  runProfile,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the display name or email",
	Long: `Change the display name or email stored by the backend. Flags left
out keep their current value.

Example:
  budgetwise profile set --name "Asha Rao"`,
	Args: cobra.NoArgs,
	RunE: runProfileSet,
}

func init() {
	addUserFlags(profileCmd)
	addUserFlags(profileSetCmd)
	profileSetCmd.Flags().StringVar(&profileName, "name", "", "display name")
	profileSetCmd.Flags().StringVar(&profileEmail, "email", "", "email address")
	profileCmd.AddCommand(profileSetCmd)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	svc, u, cleanup, err := commandService(cmd, 0)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := svc.Profile(cmd.Context(), u)
	if err != nil {
		return err
	}
	return printProfile(os.Stdout, p)
}

func runProfileSet(cmd *cobra.Command, _ []string) error {
	svc, u, cleanup, err := commandService(cmd, 0)
	if err != nil {
		return err
	}
	defer cleanup()

	p, err := svc.UpdateProfile(cmd.Context(), u, profileName, profileEmail)
	if err != nil {
		return err
	}
	return printProfile(os.Stdout, p)
}

func printProfile(out io.Writer, p core.UserProfile) error {
	name, email := p.Name, p.Email
	if name == "" {
		name = "-"
	}
	if email == "" {
		email = "-"
	}
	_, err := fmt.Fprintf(out, "Subject: %s\nName:    %s\nEmail:   %s\n", p.Subject, name, email)
	return err
}
