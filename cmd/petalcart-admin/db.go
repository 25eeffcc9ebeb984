package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/target/petalcart/internal/adapters/password"
	"github.com/target/petalcart/internal/bootstrap"
	"github.com/target/petalcart/internal/data"
	"github.com/target/petalcart/internal/devseed"
	domainauth "github.com/target/petalcart/internal/domain/auth"
	"github.com/target/petalcart/internal/migrate"
)

const defaultCommandTimeout = 5 * time.Minute

type migrateOptions struct {
	Timeout time.Duration
}

type seedOptions struct {
	Timeout       time.Duration
	AllowRemote   bool
	AdminEmail    string
	AdminPassword string
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("running database migrations")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return migrateErr
		}
		cmdCtx.Logger.Info("migrations completed successfully")
		return nil
	})
}

func runMigrationStatus(cmdCtx *commandContext, _ []string) error {
	return withDatabase(cmdCtx, time.Minute, func(ctx context.Context, db *sql.DB) error {
		versions, err := migrate.Status(ctx, db)
		if err != nil {
			return err
		}
		return printMigrationStatus(cmdCtx.Out, versions)
	})
}

func printMigrationStatus(w io.Writer, versions []migrate.Version) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "VERSION\tSTATUS\tAPPLIED AT\n"); err != nil {
		return err
	}
	for _, v := range versions {
		status, at := "pending", "-"
		if v.Applied {
			status = "applied"
			at = v.AppliedAt.UTC().Format(time.RFC3339)
		}
		if err := writef(tw, "%s\t%s\t%s\n", v.Name, status, at); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseSeedFlags(args)
	if err != nil {
		return err
	}

	if guardErr := guardRemoteHost(cmdCtx, opts.AllowRemote, "seed demo data on the configured database"); guardErr != nil {
		return guardErr
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		cmdCtx.Logger.Info("ensuring database migrations are current")
		if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
			return migrateErr
		}

		cmdCtx.Logger.Info("seeding demo catalogue")
		deps := devseed.Deps{
			Products: data.NewProductRepo(db),
			Users:    data.NewUserRepo(db),
			Hasher:   password.NewBcrypt(cmdCtx.Config.Auth.BcryptCost),
		}
		seedOpts := devseed.Options{AdminEmail: opts.AdminEmail, AdminPassword: opts.AdminPassword}
		if seedErr := devseed.Run(ctx, deps, seedOpts, cmdCtx.Logger); seedErr != nil {
			return fmt.Errorf("seed data: %w", seedErr)
		}

		cmdCtx.Logger.Info("database seeding completed successfully")
		return nil
	})
}

func runSetRole(cmdCtx *commandContext, args []string) error {
	email, role, err := parseSetRoleArgs(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, time.Minute, func(ctx context.Context, db *sql.DB) error {
		user, setErr := data.NewUserRepo(db).SetRole(ctx, email, role)
		if setErr != nil {
			return fmt.Errorf("set role: %w", setErr)
		}
		return writef(cmdCtx.Out, "%s is now %s\n", user.Email, user.Role)
	})
}

func parseSetRoleArgs(args []string) (string, domainauth.Role, error) {
	if len(args) != 2 {
		return "", "", errors.New("usage: set-role <email> <client|admin>")
	}
	email := domainauth.NormalizeEmail(args[0])
	if email == "" {
		return "", "", errors.New("email is required")
	}
	role := domainauth.ParseRole(args[1])
	if role == domainauth.RoleAnonymous {
		return "", "", fmt.Errorf("invalid role %q (valid options: client, admin)", args[1])
	}
	return email, role, nil
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{}
	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultCommandTimeout,
		"Maximum duration to wait for migrations to complete",
	)

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func parseSeedFlags(args []string) (seedOptions, error) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := seedOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration to wait for seeding to complete")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Permit running against database hosts that do not look local")
	fs.StringVar(&opts.AdminEmail, "admin-email", "", "Create or promote this account to admin")
	fs.StringVar(&opts.AdminPassword, "admin-password", "", "Password for a newly created admin account")

	if err := fs.Parse(args); err != nil {
		return seedOptions{}, err
	}
	if opts.Timeout <= 0 {
		return seedOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.AdminEmail != "" && opts.AdminPassword == "" {
		return seedOptions{}, errors.New("--admin-password is required with --admin-email")
	}
	return opts, nil
}

func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

func guardRemoteHost(cmdCtx *commandContext, allow bool, action string) error {
	host := cmdCtx.Config.Postgres.Host
	if !isLikelyRemoteHost(host) {
		return nil
	}
	if !allow {
		return fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			host,
		)
	}
	return requireRemoteHostConfirmation(os.Stdin, os.Stderr, action, host)
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return false
	}
	if h == "localhost" || h == "postgres" || strings.HasSuffix(h, ".local") {
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

func requireRemoteHostConfirmation(in io.Reader, out io.Writer, action, host string) error {
	if err := writef(out,
		"\nWARNING: database host %q does not look like a local address.\nThis operation will %s.\n",
		host, action,
	); err != nil {
		return fmt.Errorf("print remote host warning: %w", err)
	}
	if err := writef(out, "Type %q to continue or press enter to abort: ", host); err != nil {
		return fmt.Errorf("print remote host prompt: %w", err)
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if strings.TrimSpace(resp) != host {
		return errors.New("aborted by user")
	}
	return nil
}
