package main

import (
	"fmt"
	"strings"

	"bookshelf/internal/app"
	"bookshelf/internal/models"

	"github.com/spf13/cobra"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every book in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer sh.Close()

			if _, err := sh.requireSession(); err != nil {
				return err
			}
			d, err := sh.app.View()
			if err != nil {
				return err
			}
			return sh.out.display(d)
		},
	}
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Find books by title, author, category or ISBN",
		Long: `Find books whose title, author, category or ISBN contains the term,
ignoring case. Multiple arguments are joined with spaces.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer sh.Close()

			if _, err := sh.requireSession(); err != nil {
				return err
			}
			res := sh.app.Dispatch(app.Search{Term: strings.Join(args, " ")})
			if res.Err != nil {
				return res.Err
			}
			return sh.out.display(*res.Display)
		},
	}
}

// bookFlags binds the book form fields to command flags.
func bookFlags(cmd *cobra.Command, f *models.BookFields) {
	cmd.Flags().StringVar(&f.Title, "title", "", "book title")
	cmd.Flags().StringVar(&f.Author, "author", "", "book author")
	cmd.Flags().StringVar(&f.ISBN, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&f.Year, "year", "", "publication year")
	cmd.Flags().StringVar(&f.Category, "category", "", "category")
	cmd.Flags().StringVar(&f.Status, "status", "", `status (default "`+models.DefaultStatus+`")`)
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var fields models.BookFields

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer sh.Close()

			if _, err := sh.requireSession(); err != nil {
				return err
			}
			res := sh.app.Dispatch(app.SubmitBook{Fields: fields})
			if res.Err != nil {
				return res.Err
			}
			return sh.out.value(res.Book, res.Book.ID)
		},
	}
	bookFlags(cmd, &fields)
	return cmd
}

func newEditCommand(opts *rootOptions) *cobra.Command {
	var fields models.BookFields

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a book",
		Long:  "Change a book. Fields without a flag keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer sh.Close()

			if _, err := sh.requireSession(); err != nil {
				return err
			}
			res := sh.app.Dispatch(app.BeginEdit{ID: args[0]})
			if res.Err != nil {
				return res.Err
			}
			if res.Book == nil {
				return models.ErrBookNotFound
			}

			merged := mergeFields(cmd, *res.Book, fields)
			res = sh.app.Dispatch(app.SubmitBook{Fields: merged})
			if res.Err != nil {
				sh.app.Dispatch(app.CancelEdit{})
				return res.Err
			}
			return sh.out.value(res.Book, res.Book.ID)
		},
	}
	bookFlags(cmd, &fields)
	return cmd
}

// mergeFields starts from b and applies the flags the user set.
func mergeFields(cmd *cobra.Command, b models.Book, set models.BookFields) models.BookFields {
	f := models.BookFields{
		Title:    b.Title,
		Author:   b.Author,
		ISBN:     b.ISBN,
		Year:     b.Year,
		Category: b.Category,
		Status:   b.Status,
	}
	for name, pair := range map[string][2]*string{
		"title":    {&f.Title, &set.Title},
		"author":   {&f.Author, &set.Author},
		"isbn":     {&f.ISBN, &set.ISBN},
		"year":     {&f.Year, &set.Year},
		"category": {&f.Category, &set.Category},
		"status":   {&f.Status, &set.Status},
	} {
		if cmd.Flags().Changed(name) {
			*pair[0] = *pair[1]
		}
	}
	return f
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer sh.Close()

			if _, err := sh.requireSession(); err != nil {
				return err
			}
			res := sh.app.Dispatch(app.RequestDelete{ID: args[0]})
			if res.Err != nil {
				return res.Err
			}

			if !yes {
				ok, err := opts.confirm(cmd.OutOrStdout(),
					fmt.Sprintf("Delete %q by %s?", res.Book.Title, res.Book.Author))
				if err != nil {
					sh.app.Dispatch(app.CancelDelete{Token: res.Token})
					return err
				}
				if !ok {
					sh.app.Dispatch(app.CancelDelete{Token: res.Token})
					return sh.out.value(map[string]string{"kept": args[0]}, "Kept "+res.Book.Title)
				}
			}

			res = sh.app.Dispatch(app.ConfirmDelete{Token: res.Token})
			if res.Err != nil {
				return res.Err
			}
			return sh.out.value(map[string]string{"deleted": res.DeletedID}, "Deleted "+res.DeletedID)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count books by status and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer sh.Close()

			if _, err := sh.requireSession(); err != nil {
				return err
			}
			s, err := sh.app.Stats()
			if err != nil {
				return err
			}

			var sb strings.Builder
			fmt.Fprintf(&sb, "%d books\n\nby status:", s.Total)
			for _, b := range s.Statuses {
				fmt.Fprintf(&sb, "\n  %-16s %4d %5.1f%%", b.Label, b.Count, b.Percentage)
			}
			sb.WriteString("\n\nby category:")
			for _, b := range s.Categories {
				fmt.Fprintf(&sb, "\n  %-16s %4d %5.1f%%", b.Label, b.Count, b.Percentage)
			}
			return sh.out.value(s, sb.String())
		},
	}
}
