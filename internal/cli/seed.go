package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrlokans/shelf/internal/entrypoint"
	"github.com/mrlokans/shelf/internal/forms"
	"github.com/mrlokans/shelf/internal/services"
	"github.com/mrlokans/shelf/internal/store"
)

var seedForce bool

type sampleBook struct {
	form     forms.BookForm
	chapters []string
}

type sampleAuthor struct {
	form  forms.AuthorForm
	books []sampleBook
}

var sampleCatalog = []sampleAuthor{
	{
		form: forms.AuthorForm{Name: "George Orwell", Bio: "English novelist and essayist.", Genres: "Dystopian, Political fiction, Satire"},
		books: []sampleBook{
			{
				form:     forms.BookForm{Title: "Nineteen Eighty-Four", Year: "1949", Category: "Novel", Description: "Winston Smith and the Party."},
				chapters: []string{"Part One", "Part Two", "Part Three"},
			},
			{
				form:     forms.BookForm{Title: "Animal Farm", Year: "1945", Category: "Novella"},
				chapters: []string{"Old Major's Dream", "The Rebellion"},
			},
		},
	},
	{
		form: forms.AuthorForm{Name: "Ursula K. Le Guin", Bio: "American author of speculative fiction.", Genres: "Science fiction, Fantasy"},
		books: []sampleBook{
			{
				form:     forms.BookForm{Title: "The Left Hand of Darkness", Year: "1969", Category: "Novel"},
				chapters: []string{"A Parade in Erhenrang", "The Place Inside the Blizzard"},
			},
			{
				form: forms.BookForm{Title: "A Wizard of Earthsea", Year: "1968"},
			},
		},
	},
	{
		form: forms.AuthorForm{Name: "Italo Calvino", Genres: "Fabulism"},
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a sample catalog",
	Long: `Insert a few sample authors with books and chapters. An existing
catalog is left alone unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(app *entrypoint.App) error {
			existing, err := app.Store.Authors().List(ctx)
			if err != nil {
				return err
			}
			if len(existing) > 0 && !seedForce {
				fmt.Fprintf(cmd.OutOrStdout(), "Catalog already has %d authors; use --force to add the samples anyway\n", len(existing))
				return nil
			}

			added, err := seedCatalog(ctx, app.Catalog, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s\n", added)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Seed even when the catalog is not empty")
}

// seedCatalog adds sampleCatalog through the services so every record gets
// the same validation and stamping as a UI submission.
func seedCatalog(ctx context.Context, catalog *services.Catalog, out io.Writer) (store.CascadeResult, error) {
	var added store.CascadeResult
	for _, a := range sampleCatalog {
		if errs := a.form.Validate(); len(errs) > 0 {
			return added, fmt.Errorf("sample author %q: %w", a.form.Name, errs)
		}
		authorID, err := catalog.Authors.AddAuthor(ctx, a.form.Payload())
		if err != nil {
			return added, fmt.Errorf("failed to add author %q: %w", a.form.Name, err)
		}
		added.Authors++
		fmt.Fprintf(out, "  %s\n", a.form.Name)

		for _, b := range a.books {
			bf := b.form
			bf.AuthorID = authorID
			if errs := bf.Validate(); len(errs) > 0 {
				return added, fmt.Errorf("sample book %q: %w", bf.Title, errs)
			}
			bookID, err := catalog.Books.AddBook(ctx, bf.Payload())
			if err != nil {
				return added, fmt.Errorf("failed to add book %q: %w", bf.Title, err)
			}
			added.Books++

			for i, title := range b.chapters {
				cf := forms.ChapterForm{BookID: bookID, Title: title, Number: strconv.Itoa(i + 1)}
				if _, err := catalog.Chapters.AddChapter(ctx, cf.Payload()); err != nil {
					return added, fmt.Errorf("failed to add chapter %q: %w", title, err)
				}
				added.Chapters++
			}
		}
	}
	return added, nil
}
