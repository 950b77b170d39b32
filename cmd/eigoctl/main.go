// Command eigoctl runs maintenance tasks against the eigo database.
//
//	eigoctl migrate
//	eigoctl promote --email teacher@example.com --role admin
//	eigoctl import --unit <uuid> --file questions.csv [--format csv]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/yungbote/eigo-backend/internal/app"
	"github.com/yungbote/eigo-backend/internal/domain/account"
	"github.com/yungbote/eigo-backend/internal/importfile"
)

const usage = `usage: eigoctl <command> [flags]

commands:
  migrate   create or update the schema
  promote   set an account role (--email, --role)
  import    load questions into a unit (--unit, --file, --format)
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "eigoctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprint(out, usage)
		return nil
	}
	cmd, rest := args[0], args[1:]

	fs := pflag.NewFlagSet("eigoctl "+cmd, pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.String("db-driver", "", "postgres or sqlite (overrides DB_DRIVER)")
	fs.String("database-url", "", "postgres DSN (overrides DATABASE_URL)")
	fs.String("sqlite-path", "", "sqlite file (overrides SQLITE_PATH)")
	fs.String("log-mode", "", "development or production")

	var (
		email, role      string
		unit, file, frmt string
	)
	switch cmd {
	case "migrate":
	case "promote":
		fs.StringVar(&email, "email", "", "account email")
		fs.StringVar(&role, "role", string(account.RoleAdmin), "user or admin")
	case "import":
		fs.StringVar(&unit, "unit", "", "target unit id")
		fs.StringVar(&file, "file", "", "json, yaml or csv file")
		fs.StringVar(&frmt, "format", "", "file format; guessed from the extension when empty")
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}

	cfg, err := app.LoadConfig(fs)
	if err != nil {
		return err
	}
	a, err := app.Open(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "migrate":
		fmt.Fprintf(out, "schema up to date (%s)\n", cfg.DB.Driver)
		return nil
	case "promote":
		return promote(ctx, a, out, email, role)
	default:
		return importFile(ctx, a, out, unit, file, frmt)
	}
}

func promote(ctx context.Context, a *app.App, out io.Writer, email, role string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("--email is required")
	}
	r, ok := account.ParseRole(role)
	if !ok {
		return fmt.Errorf("--role must be user or admin, got %q", role)
	}
	acct, err := a.Services.Accounts.Promote(ctx, email, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is now %s\n", acct.Email, acct.Role)
	return nil
}

func importFile(ctx context.Context, a *app.App, out io.Writer, unit, file, frmt string) error {
	unitID, err := uuid.Parse(strings.TrimSpace(unit))
	if err != nil {
		return fmt.Errorf("--unit must be a uuid: %w", err)
	}
	if strings.TrimSpace(file) == "" {
		return errors.New("--file is required")
	}
	format, ok := importfile.ParseFormat(frmt)
	if !ok {
		if format, ok = importfile.FormatFromName(file); !ok {
			return fmt.Errorf("cannot tell the format of %s; pass --format", file)
		}
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	rows, err := importfile.Decode(format, f)
	if err != nil {
		return err
	}
	res, err := a.Services.Importer.ImportQuestions(ctx, unitID, rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d questions (%d answers) into unit %s starting at order %d\n",
		res.Questions, res.Answers, res.UnitID, res.FirstOrder)
	return nil
}
