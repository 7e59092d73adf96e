package news

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/pliu/newsportal/internal/metrics"
	"github.com/pliu/newsportal/internal/models"
)

// ImportedCategory labels articles pulled from a feed with no categories.
const ImportedCategory = "Новости"

const maxExcerpt = 200

// Import fetches an RSS or Atom feed and adds its items to the latest section.
func (c *Catalog) Import(ctx context.Context, url string) ([]models.Article, error) {
	feed, err := gofeed.NewParser().ParseURLWithContext(url, ctx)
	if err != nil {
		metrics.IncFeedImport("error")
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}
	return c.ImportFeed(feed), nil
}

// ImportFeed adds the feed's items, skipping links the catalog already has.
// New articles get fresh ids and are returned in feed order.
func (c *Catalog) ImportFeed(feed *gofeed.Feed) []models.Article {
	c.mu.Lock()
	defer c.mu.Unlock()

	var added []models.Article
	for _, item := range feed.Items {
		if item == nil || item.Title == "" {
			continue
		}
		link := item.Link
		if link == "" {
			link = item.GUID
		}
		if link != "" && c.links[link] {
			continue
		}
		a := c.fromItem(feed, item, link)
		c.add(SectionLatest, a)
		added = append(added, a)
	}

	if len(added) == 0 {
		metrics.IncFeedImport("empty")
	} else {
		metrics.IncFeedImport("ok")
	}
	return added
}

// fromItem must be called with mu held.
func (c *Catalog) fromItem(feed *gofeed.Feed, item *gofeed.Item, link string) models.Article {
	a := models.Article{
		ID:       c.nextID,
		Title:    strings.TrimSpace(item.Title),
		Category: ImportedCategory,
		Excerpt:  excerpt(item.Description),
		Link:     link,
	}
	if len(item.Categories) > 0 {
		a.Category = item.Categories[0]
	}
	switch {
	case len(item.Authors) > 0 && item.Authors[0] != nil:
		a.Author = item.Authors[0].Name
	case feed.Title != "":
		a.Author = feed.Title
	}
	switch {
	case item.PublishedParsed != nil:
		a.Date = models.FormatDate(*item.PublishedParsed)
	case item.UpdatedParsed != nil:
		a.Date = models.FormatDate(*item.UpdatedParsed)
	}
	return a
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxExcerpt {
		return s
	}
	return strings.TrimSpace(string(r[:maxExcerpt])) + "…"
}
