package cli

import (
	"context"
	"fmt"
	"strings"
)

func (c *Cli) runSearch(ctx context.Context, args []string) error {
	fs := newFlagSet("search")
	size := fs.Int("size", 0, "page size (1..50)")
	after := fs.String("after", "", "cursor from the previous page")
	if err := parse(fs, args); err != nil {
		return err
	}

	query := strings.Join(fs.Args(), " ")
	if query == "" {
		return fmt.Errorf("%w: search requires a query", ErrUsage)
	}

	res, err := c.api.Search(ctx, query, *size, *after)
	if err != nil {
		return err
	}

	if len(res.Hits) == 0 {
		c.io.Println("Nothing found.")
		return nil
	}
	for _, hit := range res.Hits {
		text := hit.Title
		if text == "" {
			text = hit.Content
		}
		c.io.Printf("%-7s %s  score=%.0f  by %s  %s\n", hit.Kind, hit.ID, hit.Score, hit.AuthorName, text)
	}
	if res.Next != "" {
		c.io.Printf("\nNext page: gophblog search --after %s %s\n", res.Next, query)
	}
	return nil
}
