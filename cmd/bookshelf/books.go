package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bookshelf/internal/controller"
	"bookshelf/internal/query"
	"bookshelf/internal/render"
	"bookshelf/pkg/models"
)

type bookFlags struct {
	title    string
	author   string
	year     int
	finished bool
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "book title")
	cmd.Flags().StringVarP(&f.author, "author", "a", "", "book author")
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "publication year")
	cmd.Flags().BoolVar(&f.finished, "finished", false, "mark the book as finished")
}

func newAddCmd(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			in := controller.Submission{
				Title:      f.title,
				Author:     f.author,
				IsComplete: f.finished,
			}
			if cmd.Flags().Changed("year") {
				in.Year = strconv.Itoa(f.year)
			}
			out, err := a.ctl.Submit(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %s (%s)\n", out.Notice.Title, out.Book.Title, out.Book.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the fields of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			id := models.BookID(args[0])
			opened := a.ctl.ClickEdit(id)
			if opened.Book == nil {
				return fmt.Errorf("book %s not found", id)
			}

			in := controller.Submission{
				Title:      opened.Form.Title,
				Author:     opened.Form.Author,
				Year:       opened.Form.Year,
				IsComplete: opened.Form.IsComplete,
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title = f.title
			}
			if flags.Changed("author") {
				in.Author = f.author
			}
			if flags.Changed("year") {
				in.Year = strconv.Itoa(f.year)
			}
			if flags.Changed("finished") {
				in.IsComplete = f.finished
			}

			out, err := a.ctl.Submit(cmd.Context(), in)
			if err != nil {
				return err
			}
			if out.Notice != nil {
				fmt.Fprintf(a.out, "%s: %s (%s)\n", out.Notice.Title, out.Book.Title, id)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			id := models.BookID(args[0])
			if _, ok := a.store.Get(id); !ok {
				return fmt.Errorf("book %s not found", id)
			}
			out, err := a.ctl.ClickDelete(cmd.Context(), id, a.confirmer(yes))
			return a.report(out, err)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func newToggleCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Switch a book between unread and finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			id := models.BookID(args[0])
			if _, ok := a.store.Get(id); !ok {
				return fmt.Errorf("book %s not found", id)
			}
			out, err := a.ctl.ClickToggle(cmd.Context(), id, a.confirmer(yes))
			return a.report(out, err)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		filter string
		search string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the bookshelf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			f := a.ctl.Filter()
			if filter != "" {
				parsed, ok := models.ParseFilter(filter)
				if !ok {
					return fmt.Errorf("unknown filter %q (want all, unread or read)", filter)
				}
				f = parsed
			}

			res := query.Visible(a.store.List(), f, search)
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Displayed())
			}
			return render.Terminal(a.out, render.Project(res, f, strings.TrimSpace(search), ""))
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "all, unread or read (default: the saved filter)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only titles containing this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the displayed books as JSON")
	return cmd
}

func newFilterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "filter [all|unread|read]",
		Short:     "Show or set the saved filter",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"all", "unread", "read"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Fprintln(a.out, a.ctl.Filter())
				return nil
			}
			f, ok := models.ParseFilter(args[0])
			if !ok {
				return fmt.Errorf("unknown filter %q (want all, unread or read)", args[0])
			}
			if err := a.ctl.SetFilter(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Fprintln(a.out, f)
			return nil
		},
	}
}

// confirmer asks on the terminal unless yes is set.
func (a *app) confirmer(yes bool) controller.Confirmer {
	if yes {
		return controller.Answer(true)
	}
	return controller.ConfirmFunc(func(ctx context.Context, p controller.Prompt) (bool, error) {
		fmt.Fprintf(a.out, "%s [y/N] ", p.Title)
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && line == "" {
			// no answer counts as no
			return false, ctx.Err()
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	})
}

func (a *app) report(out controller.Outcome, err error) error {
	if err != nil {
		return err
	}
	switch {
	case out.Prompt != nil:
		fmt.Fprintln(a.out, "Cancelled")
	case out.Notice != nil:
		fmt.Fprintln(a.out, out.Notice.Title)
	}
	return nil
}
