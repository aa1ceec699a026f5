package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDiscoverCategories は、フロントページからのカテゴリ発見をテストします。
func TestDiscoverCategories(t *testing.T) {
	html := `<html><body>
		<a href="/world/">World</a>
		<a href="/sports">Sports</a>
		<a href="http://site.com/tech/">Tech</a>
		<a href="http://site.com">Home</a>
		<a href="http://other.com/biz/">Other Site</a>
		<a href="/world/asia/japan">Too Deep</a>
		<a href="/about">About Us</a>
		<a href="/logo.png">Logo</a>
		<a href="#section">Fragment</a>
		<a href="mailto:editor@site.com">Mail</a>
		<a href="/world/">World Duplicate</a>
	</body></html>`

	extractor := NewExtractor()
	categories := extractor.DiscoverCategories(html, "http://site.com/")

	assert.Equal(t, []string{
		"http://site.com/world/",
		"http://site.com/sports/",
		"http://site.com/tech/",
		"http://site.com/",
	}, categories)
}

// TestDiscoverCategories_Subdomain は、同一登録可能ドメインのサブドメインが
// カテゴリとして許容されることをテストします。
func TestDiscoverCategories_Subdomain(t *testing.T) {
	html := `<html><body>
		<a href="http://edition.site.com/">Edition</a>
		<a href="http://site.net/">Different Suffix</a>
	</body></html>`

	extractor := NewExtractor()
	categories := extractor.DiscoverCategories(html, "http://site.com/")

	assert.Equal(t, []string{"http://edition.site.com/"}, categories)
}

// TestDiscoverFeeds は、RSS/Atomフィードの自動発見をテストします。
func TestDiscoverFeeds(t *testing.T) {
	html := `<html><head>
		<link rel="alternate" type="application/rss+xml" href="/feed.xml">
		<link rel="alternate" type="application/atom+xml" href="http://site.com/atom.xml">
		<link rel="stylesheet" href="/style.css">
	</head><body></body></html>`

	extractor := NewExtractor()
	feeds := extractor.DiscoverFeeds(html, "http://site.com/")

	assert.Equal(t, []string{
		"http://site.com/feed.xml",
		"http://site.com/atom.xml",
	}, feeds)
}

// TestExtractLinks は、アンカーのhref値の収集をテストします。
func TestExtractLinks(t *testing.T) {
	html := `<html><body>
		<a href="/news/story-a">A</a>
		<a href="http://site.com/news/story-b">B</a>
		<a href="/news/story-a">A again</a>
		<a>no href</a>
		<a href="">empty</a>
	</body></html>`

	extractor := NewExtractor()
	links := extractor.ExtractLinks(html, "http://site.com/world/")

	assert.Equal(t, []string{
		"/news/story-a",
		"http://site.com/news/story-b",
	}, links, "hrefは解決せず生の値のまま、重複なしで収集されるべきです")
}

// TestExtractArticle は、記事ページからの構造化フィールド抽出をテストします。
func TestExtractArticle(t *testing.T) {
	longParagraph := "This is a long paragraph with more than twenty characters of body content."
	html := `<html><head>
		<title>Fallback Title</title>
		<meta property="og:title" content="OG Title">
		<meta name="description" content="A short description.">
		<meta property="article:published_time" content="2021-05-14T10:30:00Z">
		<link rel="canonical" href="/news/2021/05/14/canonical-story">
	</head><body>
		<article>
			<p>Short</p>
			<p>` + longParagraph + `</p>
		</article>
	</body></html>`

	extractor := NewExtractor()
	article, err := extractor.ExtractArticle(html, "http://site.com/news/2021/05/14/story")

	require.NoError(t, err)
	assert.Equal(t, "OG Title", article.Title)
	assert.Equal(t, "A short description.", article.MetaDescription)
	assert.Equal(t, "2021-05-14T10:30:00Z", article.PublishDate)
	assert.Equal(t, "http://site.com/news/2021/05/14/canonical-story", article.CanonicalURL)
	assert.Equal(t, longParagraph, article.Text, "短い段落は本文に含まれないべきです")
}

// TestExtractArticle_Fallbacks は、メタ情報欠如時のフォールバックをテストします。
func TestExtractArticle_Fallbacks(t *testing.T) {
	html := `<html><head>
		<title>Plain Title</title>
	</head><body>
		<main>
			<time datetime="2021-05-14">May 14</time>
			<p>Another long paragraph with enough characters to count as body.</p>
		</main>
	</body></html>`

	extractor := NewExtractor()
	article, err := extractor.ExtractArticle(html, "http://site.com/news/a/b")

	require.NoError(t, err)
	assert.Equal(t, "Plain Title", article.Title)
	assert.Empty(t, article.MetaDescription)
	assert.Equal(t, "2021-05-14", article.PublishDate)
	assert.Equal(t, "http://site.com/news/a/b", article.CanonicalURL, "canonicalがない場合はページURLへフォールバック")
}

// TestExtractArticle_EmptyBody は、本文のないページでもエラーにならないことをテストします。
func TestExtractArticle_EmptyBody(t *testing.T) {
	html := `<html><head><title>Only Title</title></head><body></body></html>`

	extractor := NewExtractor()
	article, err := extractor.ExtractArticle(html, "http://site.com/news/a/b")

	require.NoError(t, err)
	assert.Equal(t, "Only Title", article.Title)
	assert.Empty(t, article.Text)
}

// TestNormalizeCategoryURL は、カテゴリURLの末尾スラッシュ正規化をテストします。
func TestNormalizeCategoryURL(t *testing.T) {
	assert.Equal(t, "http://site.com/world/", NormalizeCategoryURL("http://site.com/world"))
	assert.Equal(t, "http://site.com/world/", NormalizeCategoryURL("http://site.com/world/"))
	assert.Equal(t, "http://site.com/world/", NormalizeCategoryURL("http://site.com/world///"))
}
