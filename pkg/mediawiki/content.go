package mediawiki

import (
	"context"
)

// FetchContent retrieves the latest revision of every title in one request.
// Batches must stay within the server's title limit (50 for regular clients).
func FetchContent(ctx context.Context, c *Client, titles []string) (PageContentSet, error) {
	if len(titles) == 0 {
		return nil, ErrNoTitles
	}

	resp, err := Send[contentQuery](ctx, c, Revisions(titles))
	if err != nil {
		return nil, err
	}
	if resp.Continue != nil {
		// The server truncated the revision content of this batch.
		c.logger.Warn().
			Int("titles", len(titles)).
			Int("pages", len(resp.Query.Pages)).
			Msg("content batch was not complete, consider a smaller batch size")
	}
	if resp.Query.Pages == nil {
		return PageContentSet{}, nil
	}
	return resp.Query.Pages, nil
}
