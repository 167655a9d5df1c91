// Package admincli implements oneiromind-admin, an operator tool that works
// directly against the application database.
package admincli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/oneiromind/internal/buildinfo"
	"github.com/dmitrijs2005/oneiromind/internal/common"
	"github.com/dmitrijs2005/oneiromind/internal/dbx"
	"github.com/dmitrijs2005/oneiromind/internal/server/config"
	"github.com/dmitrijs2005/oneiromind/internal/server/models"
	"github.com/dmitrijs2005/oneiromind/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/oneiromind/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Opener connects to the database named by dsn. release closes what was
// opened.
type Opener func(ctx context.Context, dsn string) (db *dbx.DB, release func(), err error)

func openDB(ctx context.Context, dsn string) (*dbx.DB, func(), error) {
	db, err := dbx.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

type CLI struct {
	cfg  *config.Config
	open Opener
}

func New(cfg *config.Config) *CLI {
	return &CLI{cfg: cfg, open: openDB}
}

type env struct {
	users *services.UserService
	chats *services.ChatService
}

// withEnv opens the database, applies migrations and runs fn.
func (c *CLI) withEnv(ctx context.Context, fn func(e *env) error) error {
	db, release, err := c.open(ctx, c.cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer release()

	rm := repomanager.NewSQLRepositoryManager(db.Dialect)
	if err := rm.RunMigrations(ctx, db.DB); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return fn(&env{
		users: services.NewUserService(db.DB, rm, c.cfg),
		chats: services.NewChatService(db.DB, rm),
	})
}

// RootCmd builds the command tree.
func (c *CLI) RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oneiromind-admin",
		Short:         "Administer a oneiromind database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.cfg.DatabaseDSN, "dsn", c.cfg.DatabaseDSN, "database DSN (postgres:// URL or SQLite path)")

	root.AddCommand(c.migrateCmd(), c.userCmd(), c.sessionCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
		},
	}
}

func (c *CLI) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd.Context(), func(*env) error {
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func (c *CLI) userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage user accounts"}

	var password string
	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				pw, err := promptPassword(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				password = pw
			}
			return c.withEnv(cmd.Context(), func(e *env) error {
				u, err := e.users.Register(cmd.Context(), args[0], password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d created: %s\n", u.ID, u.Email)
				return nil
			})
		},
	}
	add.Flags().StringVar(&password, "password", "", "password (prompted when empty)")

	var d models.Demographics
	demographics := &cobra.Command{
		Use:   "demographics <email>",
		Short: "Set a user's demographic profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd.Context(), func(e *env) error {
				u, err := e.users.GetByEmail(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("user %s: %w", args[0], err)
				}
				if err := e.users.SetDemographics(cmd.Context(), u.ID, d); err != nil {
					return err
				}
				summary, err := e.users.DemographicsSummary(cmd.Context(), u.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), summary)
				return nil
			})
		},
	}
	demographics.Flags().StringVar(&d.AgeRange, "age-range", "", "age range, e.g. 25-34")
	demographics.Flags().StringVar(&d.Gender, "gender", "", "gender")
	demographics.Flags().StringVar(&d.Country, "country", "", "country or cultural background")
	demographics.Flags().StringVar(&d.LifeStage, "life-stage", "", "life stage")

	cmd.AddCommand(add, demographics)
	return cmd
}

func (c *CLI) sessionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "Inspect and delete chat sessions"}

	list := &cobra.Command{
		Use:   "list <email>",
		Short: "List a user's sessions with their derived state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(c.cfg.DisplayTimezone)
			if err != nil {
				return err
			}
			return c.withEnv(cmd.Context(), func(e *env) error {
				ctx := cmd.Context()
				u, err := e.users.GetByEmail(ctx, args[0])
				if err != nil {
					return fmt.Errorf("user %s: %w", args[0], err)
				}
				sessions, err := e.chats.ListSessions(ctx, u.ID)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tSTATE\tMESSAGES")
				for _, s := range sessions {
					state, msgs, err := e.chats.State(ctx, s.ID)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", s.ID, s.CreatedAt.In(loc).Format("02 Jan 2006, 03:04 PM"), state, len(msgs))
				}
				return tw.Flush()
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("session id %q: %w", args[0], err)
			}
			return c.withEnv(cmd.Context(), func(e *env) error {
				if err := e.chats.DeleteSession(cmd.Context(), id); err != nil {
					return fmt.Errorf("session %d: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session %d deleted\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(list, del)
	return cmd
}

func promptPassword(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return strings.TrimSpace(string(pw)), nil
}
