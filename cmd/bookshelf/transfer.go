package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bookshelf/internal/transfer"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the bookshelf as JSON, CSV or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pickFormat(format, out)
			if err != nil {
				return err
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			list := a.store.List()

			if out == "" || out == "-" {
				return transfer.Export(a.out, f, list)
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := transfer.Export(file, f, list); err != nil {
				_ = file.Close()
				return fmt.Errorf("export %s: %w", out, err)
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(a.errOut, "exported %d books to %s\n", len(list), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json, csv or yaml (default: from --out extension, else json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Merge books from a JSON, CSV or YAML file",
		Long: "Merge books from a file into the shelf. Books whose id is already on the shelf\n" +
			"are overwritten in place; others are appended. Invalid records are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := pickFormat(format, path)
			if err != nil {
				return err
			}

			var r io.Reader = a.in
			if path != "-" {
				file, err := os.Open(path)
				if err != nil {
					return err
				}
				defer file.Close()
				r = file
			}

			list, err := transfer.Decode(r, f)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			res, err := a.store.Merge(cmd.Context(), list)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "added %d, updated %d, skipped %d\n", res.Added, res.Updated, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "json, csv or yaml (default: from the file extension, else json)")
	return cmd
}

func pickFormat(flag, path string) (transfer.Format, error) {
	if flag != "" {
		return transfer.ParseFormat(flag)
	}
	return transfer.FormatFromPath(path), nil
}
