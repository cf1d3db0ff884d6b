// Package admin implements the confadmin maintenance commands.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/config"
	"github.com/dmitrijs2005/confkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/confkeeper/internal/server/services"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// ErrUsage is returned for an unknown command or bad arguments.
var ErrUsage = errors.New("usage error")

type command struct {
	usage string
	run   func(ctx context.Context, a *Admin, args []string) error
}

var commands = map[string]command{
	"migrate":         {"apply schema migrations (goose on postgres, indexes on mongo)", runMigrate},
	"verify":          {"check that the store is reachable", runVerify},
	"create-user":     {"create an account; prompts for the password", runCreateUser},
	"deactivate-user": {"disable an account and revoke its sessions: deactivate-user <username>", runDeactivate},
	"purge-sessions":  {"delete expired login sessions", runPurge},
}

type Admin struct {
	repos    repomanager.RepositoryManager
	identity *services.IdentityService
	in       *bufio.Reader
	out      io.Writer

	// readPassword is a test seam for term.ReadPassword.
	readPassword func() ([]byte, error)
}

func New(repos repomanager.RepositoryManager, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) *Admin {
	return &Admin{
		repos:    repos,
		identity: services.NewIdentityService(repos, cfg, log),
		in:       bufio.NewReader(in),
		out:      out,
		readPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
	}
}

// Run executes args[0] with the remaining arguments.
func (a *Admin) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.Usage()
		return ErrUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.Usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return cmd.run(ctx, a, args[1:])
}

func (a *Admin) Usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(a.out, "usage: confadmin [global flags] <command> [args]")
	fmt.Fprintln(a.out, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(a.out, "  %-16s %s\n", name, commands[name].usage)
	}
}

func runMigrate(ctx context.Context, a *Admin, _ []string) error {
	if err := a.repos.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(a.out, "migrations applied")
	return nil
}

func runVerify(ctx context.Context, a *Admin, _ []string) error {
	if err := a.repos.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	fmt.Fprintln(a.out, "store reachable")
	return nil
}

func runCreateUser(ctx context.Context, a *Admin, args []string) error {
	var in services.SignupInput
	var passwordStdin bool

	fs := pflag.NewFlagSet("create-user", pflag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.StringVar(&in.Username, "username", "", "account username")
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.FullName, "full-name", "", "display name")
	fs.BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	var err error
	for _, field := range []struct {
		prompt string
		dst    *string
	}{
		{"Username", &in.Username},
		{"Email", &in.Email},
		{"Full name", &in.FullName},
	} {
		if *field.dst != "" {
			continue
		}
		if *field.dst, err = a.prompt(field.prompt); err != nil {
			return err
		}
	}

	if passwordStdin {
		in.Password, err = a.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		in.Password = strings.TrimRight(in.Password, "\r\n")
	} else {
		fmt.Fprint(a.out, "Enter password: ")
		pw, err := a.readPassword()
		fmt.Fprintln(a.out)
		if err != nil {
			return err
		}
		in.Password = string(pw)
	}

	id, err := a.identity.Signup(ctx, in)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(a.out, "created user %s (%s)\n", in.Username, id)
	return nil
}

func runDeactivate(ctx context.Context, a *Admin, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("%w: deactivate-user <username>", ErrUsage)
	}
	if err := a.identity.Deactivate(ctx, args[0]); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	fmt.Fprintf(a.out, "deactivated %s\n", args[0])
	return nil
}

func runPurge(ctx context.Context, a *Admin, _ []string) error {
	n, err := a.identity.PurgeExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	fmt.Fprintf(a.out, "removed %d expired sessions\n", n)
	return nil
}

// prompt prints text and reads one trimmed line.
func (a *Admin) prompt(text string) (string, error) {
	fmt.Fprint(a.out, text+"\n> ")
	line, err := a.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
