package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Лента</title>
  <link>https://example.org/</link>
  <item>
    <title>Первая новость</title>
    <link>https://example.org/1</link>
    <description>Короткое описание</description>
    <category>Наука</category>
    <pubDate>Tue, 24 Dec 2024 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Вторая новость</title>
    <link>https://example.org/2</link>
  </item>
  <item>
    <link>https://example.org/untitled</link>
  </item>
</channel>
</rss>`

func parse(t *testing.T) *gofeed.Feed {
	t.Helper()
	feed, err := gofeed.NewParser().ParseString(sampleRSS)
	require.NoError(t, err)
	return feed
}

func TestSections(t *testing.T) {
	c := NewCatalog()

	latest, err := c.List(SectionLatest)
	require.NoError(t, err)
	require.Len(t, latest, 5)
	require.True(t, latest[0].Featured)
	require.Equal(t, 1, latest[0].ID)

	popular, err := c.List(SectionPopular)
	require.NoError(t, err)
	require.Len(t, popular, 3)
	require.Equal(t, 6, popular[0].ID)

	all, err := c.List("")
	require.NoError(t, err)
	require.Len(t, all, 8)

	_, err = c.List("archive")
	require.ErrorIs(t, err, ErrUnknownSection)
}

func TestGetAndLookup(t *testing.T) {
	c := NewCatalog()

	a, err := c.Get(3)
	require.NoError(t, err)
	require.Equal(t, "Космос", a.Category)

	_, err = c.Get(999)
	require.ErrorIs(t, err, ErrNotFound)

	got := c.Lookup([]int{7, 999, 2})
	require.Len(t, got, 2)
	require.Equal(t, 7, got[0].ID)
	require.Equal(t, 2, got[1].ID)
}

func TestListReturnsCopy(t *testing.T) {
	c := NewCatalog()
	latest, err := c.List(SectionLatest)
	require.NoError(t, err)
	latest[0].Title = "changed"

	a, err := c.Get(1)
	require.NoError(t, err)
	require.NotEqual(t, "changed", a.Title)
}

func TestImportFeed(t *testing.T) {
	c := NewCatalog()

	added := c.ImportFeed(parse(t))
	require.Len(t, added, 2)

	first := added[0]
	require.Equal(t, 9, first.ID)
	require.Equal(t, "Первая новость", first.Title)
	require.Equal(t, "Наука", first.Category)
	require.Equal(t, "24 дек 2024", first.Date)
	require.Equal(t, "Лента", first.Author)
	require.Equal(t, "https://example.org/1", first.Link)

	require.Equal(t, 10, added[1].ID)
	require.Equal(t, ImportedCategory, added[1].Category)

	got, err := c.Get(10)
	require.NoError(t, err)
	require.Equal(t, "Вторая новость", got.Title)

	// a second import of the same feed adds nothing
	require.Empty(t, c.ImportFeed(parse(t)))

	latest, err := c.List(SectionLatest)
	require.NoError(t, err)
	require.Len(t, latest, 7)
}

func TestImportFromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	added, err := NewCatalog().Import(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, added, 2)
}

func TestImportBadURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewCatalog().Import(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestExcerpt(t *testing.T) {
	require.Equal(t, "a b", excerpt("  a \n\t b "))

	long := excerpt(strings.Repeat("я", maxExcerpt+10))
	require.True(t, strings.HasSuffix(long, "…"))
	require.Equal(t, maxExcerpt+1, len([]rune(long)))
}
