package mediawiki

import (
	"context"
	"iter"
)

// ListCategory lazily pages through the members of a category.
func ListCategory(ctx context.Context, c *Client, category string, limit int) iter.Seq2[CategoryPage, error] {
	return Pages[CategoryPage](ctx, c, CategoryMembers(category, limit))
}

// AllTitles drains ListCategory and flattens the member titles across pages.
// It stops at the first transport error and returns the titles collected so far.
func AllTitles(ctx context.Context, c *Client, category string, limit int) ([]string, error) {
	var all []string
	for page, err := range ListCategory(ctx, c, category, limit) {
		if err != nil {
			return all, err
		}
		all = append(all, page.Titles()...)
	}
	return all, nil
}
