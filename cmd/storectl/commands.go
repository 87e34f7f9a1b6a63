package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-extras/cobraflags"
	"github.com/lalith-99/storefront/internal/app"
	"github.com/lalith-99/storefront/internal/config"
	"github.com/lalith-99/storefront/internal/db/migrate"
	"github.com/lalith-99/storefront/internal/identity"
	"github.com/lalith-99/storefront/internal/observ"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const emailFlag = "email"

func newEmailFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		emailFlag: &cobraflags.StringFlag{
			Name:  emailFlag,
			Value: "",
			Usage: "Principal email (defaults to PLATFORM_ADMIN_EMAIL)",
		},
	}
}

// env is what every command except migrate works with.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	stores   *app.Stores
	identity *identity.Provider
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if cfg.StoreBackend == config.StoreBackendMemory {
		logger.Warn("STORE_BACKEND=memory: changes vanish when storectl exits")
	}
	stores, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, stores: stores, identity: app.NewIdentity(stores, cfg, logger)}, nil
}

func (e *env) close() {
	e.stores.Close()
	_ = e.logger.Sync()
}

// email returns the --email flag or the configured platform admin email.
func (e *env) email(flags map[string]cobraflags.Flag) (string, error) {
	if v := flags[emailFlag].GetString(); v != "" {
		return v, nil
	}
	if e.cfg.PlatformAdminEmail != "" {
		return e.cfg.PlatformAdminEmail, nil
	}
	return "", errors.New("no email: pass --email or set PLATFORM_ADMIN_EMAIL")
}

// ---------------------------------------------------------------
// migrate
// ---------------------------------------------------------------

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the embedded schema migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := migrate.Run(cfg.DatabaseURL, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", args[0])
			return nil
		},
	}
}

// ---------------------------------------------------------------
// set-admin / revoke-admin
// ---------------------------------------------------------------

func newSetAdminCommand() *cobra.Command {
	return newAdminClaimCommand("set-admin", "Grant the platform admin claim", true)
}

func newRevokeAdminCommand() *cobra.Command {
	return newAdminClaimCommand("revoke-admin", "Withdraw the platform admin claim", false)
}

func newAdminClaimCommand(use, short string, grant bool) *cobra.Command {
	flags := newEmailFlags()
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			email, err := e.email(flags)
			if err != nil {
				return err
			}
			return setPlatformAdmin(ctx, e.identity, email, grant, cmd.OutOrStdout())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func setPlatformAdmin(ctx context.Context, provider *identity.Provider, email string, grant bool, out io.Writer) error {
	rec, err := provider.SetPlatformAdmin(ctx, email, grant)
	if err != nil {
		if errors.Is(err, identity.ErrUnknownPrincipal) {
			return fmt.Errorf("%s has not signed up yet", email)
		}
		return err
	}
	fmt.Fprintf(out, "%s (%s) platformAdmin=%t\n", rec.Email, rec.ID, grant)
	fmt.Fprintln(out, "The change is visible after the user's next session refresh.")
	return nil
}

// ---------------------------------------------------------------
// get-claims
// ---------------------------------------------------------------

func newGetClaimsCommand() *cobra.Command {
	flags := newEmailFlags()
	cmd := &cobra.Command{
		Use:   "get-claims",
		Short: "Print a principal's custom claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			email, err := e.email(flags)
			if err != nil {
				return err
			}
			return printClaims(ctx, e.identity, email, cmd.OutOrStdout())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func printClaims(ctx context.Context, provider *identity.Provider, email string, out io.Writer) error {
	rec, err := provider.Lookup(ctx, email)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "ID:           %s\n", rec.ID)
	fmt.Fprintf(out, "Email:        %s\n", rec.Email)
	name := rec.DisplayName
	if name == "" {
		name = "N/A"
	}
	fmt.Fprintf(out, "Display name: %s\n", name)

	claims, err := json.MarshalIndent(rec.Claims, "", "  ")
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	fmt.Fprintf(out, "Claims:       %s\n", claims)
	return nil
}

// ---------------------------------------------------------------
// seed
// ---------------------------------------------------------------

func newSeedCommand() *cobra.Command {
	flags := newEmailFlags()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Make a signed-up user platform admin and give them a demo store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer e.close()

			email, err := e.email(flags)
			if err != nil {
				return err
			}
			return seedDemo(ctx, e.stores, e.identity, e.logger, email, cmd.OutOrStdout())
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
