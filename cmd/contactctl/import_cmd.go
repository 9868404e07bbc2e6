package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/contacts/internal/app"
	"github.com/JonMunkholm/contacts/internal/core"
	"github.com/spf13/cobra"
)

type importOptions struct {
	DryRun bool
	Output string
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a contact CSV file and print the outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Output != "json" && opts.Output != "text" {
				return fmt.Errorf("--output must be json or text, got %q", opts.Output)
			}

			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			info, err := f.Stat()
			if err != nil {
				f.Close()
				return err
			}
			if info.Size() > cfg.Import.MaxFileSize {
				f.Close()
				return fmt.Errorf("%s: file too large (%d > %d bytes)", args[0], info.Size(), cfg.Import.MaxFileSize)
			}

			store, closeStore, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				f.Close()
				return err
			}
			defer closeStore()
			if opts.DryRun {
				store = newDryRunStore(store)
			}

			svc := core.NewService(store, app.ServiceConfig(cfg), nil)
			result, err := svc.Import(cmd.Context(), filepath.Base(args[0]), f, info.Size())
			if err != nil {
				return err
			}
			return printOutcome(cmd.OutOrStdout(), opts.Output, result.Outcome)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate against the store without inserting")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "json", "output format: json or text")

	return cmd
}

func printOutcome(w io.Writer, format string, outcome core.Outcome) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	fmt.Fprintf(w, "inserted: %d\nskipped: %d\n", outcome.Inserted, outcome.Skipped)
	for _, e := range outcome.Errors {
		fmt.Fprintf(w, "line %d: %s\n", e.Line, e.Message)
	}
	return nil
}

// dryRunStore reads through to the real store but keeps inserts in memory.
type dryRunStore struct {
	base    core.Store
	overlay *core.MemoryStore
}

func newDryRunStore(base core.Store) *dryRunStore {
	return &dryRunStore{base: base, overlay: core.NewMemoryStore()}
}

func (s *dryRunStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if ok, _ := s.overlay.ExistsByEmail(ctx, email); ok {
		return true, nil
	}
	return s.base.ExistsByEmail(ctx, email)
}

func (s *dryRunStore) Create(ctx context.Context, c core.Contact) error {
	exists, err := s.base.ExistsByEmail(ctx, c.Email)
	if err != nil {
		return err
	}
	if exists {
		return core.ErrDuplicateEmail
	}
	return s.overlay.Create(ctx, c)
}

func (s *dryRunStore) Ping(ctx context.Context) error {
	return s.base.Ping(ctx)
}

var _ core.Store = (*dryRunStore)(nil)
