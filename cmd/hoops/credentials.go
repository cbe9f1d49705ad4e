package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/artpar/hoops/adapters/idgen"
	"github.com/artpar/hoops/adapters/random"
	"github.com/artpar/hoops/adapters/sqldb"
	"github.com/artpar/hoops/ports"
	"github.com/spf13/cobra"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Manage OAuth consumer credentials",
	Long: `Manage the OAuth 1.0a credentials accepted by hoops.

A credential is a consumer key and secret, optionally with a token pair.
Its owner is bound to rows of owner-scoped resources.

Examples:
  hoops credentials create --owner=alice
  hoops credentials list
  hoops credentials disable 3f2a...`,
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List credentials",
	RunE:  runCredentialsList,
}

var credentialsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new credential",
	RunE:  runCredentialsCreate,
}

var credentialsDisableCmd = &cobra.Command{
	Use:   "disable <consumer-key>",
	Short: "Reject requests signed with a credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCredentialEnabled(cmd, args[0], false)
	},
}

var credentialsEnableCmd = &cobra.Command{
	Use:   "enable <consumer-key>",
	Short: "Accept requests signed with a credential again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCredentialEnabled(cmd, args[0], true)
	},
}

var (
	credOwner     string
	credKey       string
	credSecret    string
	credWithToken bool
)

func init() {
	rootCmd.AddCommand(credentialsCmd)

	credentialsCmd.AddCommand(credentialsListCmd)
	credentialsCmd.AddCommand(credentialsCreateCmd)
	credentialsCmd.AddCommand(credentialsDisableCmd)
	credentialsCmd.AddCommand(credentialsEnableCmd)

	credentialsCreateCmd.Flags().StringVar(&credOwner, "owner", "", "owner bound to owner-scoped rows (required)")
	credentialsCreateCmd.Flags().StringVar(&credKey, "key", "", "consumer key (generated when empty)")
	credentialsCreateCmd.Flags().StringVar(&credSecret, "secret", "", "consumer secret (generated when empty)")
	credentialsCreateCmd.Flags().BoolVar(&credWithToken, "with-token", false, "also generate a token pair")
	credentialsCreateCmd.MarkFlagRequired("owner")
}

func runCredentialsList(cmd *cobra.Command, args []string) error {
	db, _, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	creds, err := sqldb.NewCredentialStore(db).List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(creds) == 0 {
		fmt.Fprintln(out, "No credentials found.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Create one with: hoops credentials create --owner=<owner>")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONSUMER KEY\tOWNER\tTOKEN\tSTATUS\tCREATED")
	fmt.Fprintln(w, "------------\t-----\t-----\t------\t-------")

	for _, c := range creds {
		status := "enabled"
		if !c.Enabled {
			status = "disabled"
		}
		token := "-"
		if c.Token != "" {
			token = c.Token
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ConsumerKey, c.OwnerRef, token, status, c.CreatedAt.Format("2006-01-02"))
	}

	return w.Flush()
}

func runCredentialsCreate(cmd *cobra.Command, args []string) error {
	db, _, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	c := ports.Credential{
		ID:             idgen.UUID{}.New(),
		ConsumerKey:    credKey,
		ConsumerSecret: credSecret,
		Enabled:        true,
		OwnerRef:       credOwner,
	}
	if c.ConsumerKey == "" {
		c.ConsumerKey = idgen.ConsumerKey()
	}
	if c.ConsumerSecret == "" {
		if c.ConsumerSecret, err = random.Secret(random.Real{}); err != nil {
			return err
		}
	}
	if credWithToken {
		c.Token = idgen.ConsumerKey()
		if c.TokenSecret, err = random.Secret(random.Real{}); err != nil {
			return err
		}
	}

	if err := sqldb.NewCredentialStore(db).Create(context.Background(), c); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return fmt.Errorf("consumer key %s already exists", c.ConsumerKey)
		}
		return fmt.Errorf("failed to create credential: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Created credential for %s\n", checkMark, c.OwnerRef)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Credential (save the secrets, shown once):")
	fmt.Fprintf(out, "  consumer key:    %s\n", c.ConsumerKey)
	fmt.Fprintf(out, "  consumer secret: %s\n", c.ConsumerSecret)
	if c.Token != "" {
		fmt.Fprintf(out, "  token:           %s\n", c.Token)
		fmt.Fprintf(out, "  token secret:    %s\n", c.TokenSecret)
	}
	return nil
}

func setCredentialEnabled(cmd *cobra.Command, consumerKey string, enabled bool) error {
	db, _, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	err = sqldb.NewCredentialStore(db).SetEnabled(context.Background(), consumerKey, enabled)
	if errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("credential not found: %s", consumerKey)
	}
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	state := "Disabled"
	if enabled {
		state = "Enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s credential: %s\n", checkMark, state, consumerKey)
	return nil
}
