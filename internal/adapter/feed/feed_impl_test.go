package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rss = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example News</title>
  <item>
    <title> Acme hits $45M ARR </title>
    <link>https://news.example.com/2024/05/acme</link>
    <pubDate>Wed, 08 May 2024 10:00:00 +0200</pubDate>
  </item>
  <item>
    <title>GUID only</title>
    <guid>https://news.example.com/2024/05/guid-only</guid>
  </item>
  <item>
    <title>No link</title>
    <guid isPermaLink="false">abc-123</guid>
  </item>
</channel>
</rss>`

type stubPages struct {
	body []byte
	err  error
}

func (s stubPages) Fetch(context.Context, string) ([]byte, error) { return s.body, s.err }

func TestFetchFeed(t *testing.T) {
	entries, err := NewFetcher(stubPages{body: []byte(rss)}).FetchFeed(context.Background(), "https://news.example.com/feed/")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Acme hits $45M ARR", entries[0].Title)
	assert.Equal(t, "https://news.example.com/2024/05/acme", entries[0].URL)
	require.NotNil(t, entries[0].PublishedAt)
	assert.Equal(t, time.Date(2024, 5, 8, 8, 0, 0, 0, time.UTC), *entries[0].PublishedAt)

	assert.Equal(t, "https://news.example.com/2024/05/guid-only", entries[1].URL)
	assert.Nil(t, entries[1].PublishedAt)
}

func TestFetchFeed_FetchError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewFetcher(stubPages{err: boom}).FetchFeed(context.Background(), "https://news.example.com/feed/")
	assert.ErrorIs(t, err, boom)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(context.Background(), []byte("<html>not a feed</html>"))
	assert.Error(t, err)
}

func TestParse_Atom(t *testing.T) {
	atom := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom</title>
  <entry>
    <title>Entry</title>
    <link href="https://news.example.com/atom-entry"/>
    <updated>2024-05-09T12:00:00Z</updated>
  </entry>
</feed>`
	entries, err := Parse(context.Background(), []byte(atom))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://news.example.com/atom-entry", entries[0].URL)
	require.NotNil(t, entries[0].PublishedAt)
}
