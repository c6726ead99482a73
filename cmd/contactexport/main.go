// Command contactexport writes the contact log to a spreadsheet for the
// site owner.
//
//	contactexport --storage_path data/contacts.json --out contacts.xlsx
//	contactexport --storage_backend sqlite --storage_path data/contacts.db --format csv --out -
package main

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/dalemusser/contactd/internal/app/store"
	"github.com/dalemusser/contactd/internal/domain/models"
	"github.com/dalemusser/contactd/logging"
	"github.com/dalemusser/contactd/pantry/export"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var headers = []string{"Date", "Nom", "Email", "Téléphone", "Message", "IP", "Navigateur"}

func main() {
	logger := logging.BootstrapLogger()
	defer logger.Sync()

	if err := run(context.Background(), os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error("export failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, logger *zap.Logger) error {
	fs := pflag.NewFlagSet("contactexport", pflag.ContinueOnError)
	backend := fs.String("storage_backend", "file", `Storage backend: "file" or "sqlite"`)
	path := fs.String("storage_path", "data/contacts.json", "Contact log path")
	out := fs.String("out", "contacts.xlsx", `Output file, "-" for stdout`)
	format := fs.String("format", "", `"xlsx" or "csv" (default: from --out extension)`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := strings.ToLower(*format)
	if f == "" {
		f = "xlsx"
		if strings.HasSuffix(strings.ToLower(*out), ".csv") || *out == "-" {
			f = "csv"
		}
	}
	if f != "xlsx" && f != "csv" {
		return fmt.Errorf("unknown format %q", *format)
	}

	if _, err := os.Stat(*path); err != nil {
		return fmt.Errorf("contact log: %w", err)
	}
	st, err := store.Open(ctx, store.Config{Backend: *backend, Path: *path}, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	subs, err := st.List(ctx)
	if err != nil {
		return fmt.Errorf("read contact log: %w", err)
	}
	table := toTable(subs)

	write := func(w io.Writer) error {
		if f == "csv" {
			return export.WriteCSV(w, table)
		}
		return export.WriteXLSX(w, "Contacts", table)
	}

	if *out == "-" {
		err = write(stdout)
	} else {
		err = writeFile(*out, write)
	}
	if err != nil {
		return err
	}

	logger.Info("contacts exported",
		zap.Int("count", len(subs)), zap.String("format", f), zap.String("out", *out))
	return nil
}

func writeFile(name string, write func(io.Writer) error) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		return errors.Join(err, file.Close())
	}
	return file.Close()
}

// toTable lists submissions newest first with the stored HTML entities
// decoded back to plain text.
func toTable(subs []models.Submission) export.Table {
	t := export.Table{Headers: headers, Rows: make([][]string, 0, len(subs))}
	for i := len(subs) - 1; i >= 0; i-- {
		s := subs[i]
		t.Rows = append(t.Rows, []string{
			s.Timestamp(),
			html.UnescapeString(s.Name),
			s.Email,
			html.UnescapeString(s.Phone),
			html.UnescapeString(s.Message),
			s.SourceIP,
			s.UserAgent,
		})
	}
	return t
}
