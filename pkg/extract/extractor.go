package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	textUtils "github.com/shouni/go-utils/text"

	"github.com/shouni/go-news-crawl/pkg/urlrule"
)

// ----------------------------------------------------------------------
// 定数定義 (解析関連のみ)
// ----------------------------------------------------------------------

const (
	MinParagraphLength = 20
	MinHeadingLength   = 3

	mainContentSelectors = "article, main, div[role='main'], #main, #content, .post-content, .article-body, .entry-content"
	noiseSelectors       = ".related-posts, .social-share, .comments, .ad-banner, .advertisement"

	// textExtractionTags は本文抽出に使用するHTMLタグを定義します。
	textExtractionTags = "p, h2, h3, h4, h5, h6, li, blockquote"

	// feedLinkSelectors はRSS/Atomフィードの自動発見に使用するlink要素を定義します。
	feedLinkSelectors = `link[rel='alternate'][type='application/rss+xml'], link[rel='alternate'][type='application/atom+xml']`
)

// Article は、1つの記事ページから抽出された構造化フィールドです。
type Article struct {
	Title           string
	Text            string
	MetaDescription string
	PublishDate     string // 生の日付文字列。正規化は呼び出し側の責務
	CanonicalURL    string
}

// Extractor は、生のHTMLとURLから構造化された情報を抽出します。
// 状態を持たないため、複数のGoroutineから安全に利用できます。
type Extractor struct{}

// NewExtractor は、新しいExtractorのインスタンスを生成します。
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ----------------------------------------------------------------------
// カテゴリ/リンクの発見
// ----------------------------------------------------------------------

// DiscoverCategories は、フロントページのHTMLからカテゴリ/セクションページのURLを発見します。
// 同一の登録可能ドメインに属し、パスが1セグメント以下のリンクをカテゴリ候補とします。
// 返されるURLはすべて末尾スラッシュ1つで正規化されています。
func (e *Extractor) DiscoverCategories(html, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var categories []string

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved, ok := resolveLink(base, href)
		if !ok {
			return
		}

		if !urlrule.SameRegistrableDomain(resolved.String(), baseURL) {
			return
		}

		chunks := pathChunks(resolved.Path)
		if len(chunks) > 1 {
			return
		}
		if len(chunks) == 1 {
			segment := strings.ToLower(chunks[0])
			// 拡張子付きのセグメントやボイラープレートはカテゴリではない
			if strings.Contains(segment, ".") || segment == "index" || urlrule.IsBoilerplateChunk(segment) {
				return
			}
		}

		normalized := NormalizeCategoryURL(resolved.Scheme + "://" + resolved.Host + resolved.Path)
		if _, dup := seen[normalized]; dup {
			return
		}
		seen[normalized] = struct{}{}
		categories = append(categories, normalized)
	})

	return categories
}

// DiscoverFeeds は、HTMLのlink要素からRSS/AtomフィードのURLを発見します。
func (e *Extractor) DiscoverFeeds(html, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var feeds []string
	doc.Find(feedLinkSelectors).Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved, ok := resolveLink(base, href)
		if !ok {
			return
		}
		feedURL := resolved.String()
		if _, dup := seen[feedURL]; dup {
			return
		}
		seen[feedURL] = struct{}{}
		feeds = append(feeds, feedURL)
	})
	return feeds
}

// ExtractLinks は、カテゴリページのHTMLからすべてのアンカーのhref値を収集します。
// 相対URLの解決や記事判定は行いません (分類は呼び出し側の責務)。
func (e *Extractor) ExtractLinks(html, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := map[string]struct{}{}
	var links []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})
	return links
}

// ----------------------------------------------------------------------
// 記事の抽出
// ----------------------------------------------------------------------

// ExtractArticle は、記事ページのHTMLから構造化フィールドを抽出します。
// 本文が見つからない場合でもエラーにはならず、空のTextを持つArticleを返します。
func (e *Extractor) ExtractArticle(html, pageURL string) (*Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("HTML解析に失敗しました: %w", err)
	}

	article := &Article{
		Title:           e.extractTitle(doc),
		MetaDescription: e.extractMetaDescription(doc),
		PublishDate:     e.extractPublishDate(doc),
		CanonicalURL:    e.extractCanonicalURL(doc, pageURL),
		Text:            e.extractBodyText(doc),
	}
	return article, nil
}

// extractTitle は og:title、titleタグ、h1 の優先順でタイトルを取得します。
func (e *Extractor) extractTitle(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[property='og:title']`).First().Attr("content"); ok {
		if title := strings.TrimSpace(content); title != "" {
			return title
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// extractMetaDescription は meta description または og:description を取得します。
func (e *Extractor) extractMetaDescription(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[name='description']`).First().Attr("content"); ok {
		if desc := strings.TrimSpace(content); desc != "" {
			return desc
		}
	}
	content, _ := doc.Find(`meta[property='og:description']`).First().Attr("content")
	return strings.TrimSpace(content)
}

// publishDateSelectors は公開日を探すメタタグの優先順リストです。
var publishDateSelectors = []string{
	`meta[property='article:published_time']`,
	`meta[itemprop='datePublished']`,
	`meta[name='pubdate']`,
	`meta[name='date']`,
}

// extractPublishDate は、メタタグおよびtime要素から公開日の生文字列を取得します。
func (e *Extractor) extractPublishDate(doc *goquery.Document) string {
	for _, selector := range publishDateSelectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if date := strings.TrimSpace(content); date != "" {
				return date
			}
		}
	}
	if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		return strings.TrimSpace(datetime)
	}
	return strings.TrimSpace(doc.Find("time").First().Text())
}

// extractCanonicalURL は link rel=canonical または og:url を取得し、pageURLへフォールバックします。
func (e *Extractor) extractCanonicalURL(doc *goquery.Document, pageURL string) string {
	base, baseErr := url.Parse(pageURL)

	var candidates []string
	if href, ok := doc.Find(`link[rel='canonical']`).First().Attr("href"); ok {
		candidates = append(candidates, href)
	}
	if content, ok := doc.Find(`meta[property='og:url']`).First().Attr("content"); ok {
		candidates = append(candidates, content)
	}

	for _, cand := range candidates {
		cand = strings.TrimSpace(cand)
		if cand == "" {
			continue
		}
		if baseErr == nil {
			if resolved, ok := resolveLink(base, cand); ok {
				return resolved.String()
			}
			continue
		}
		return cand
	}
	return pageURL
}

// extractBodyText は、メインコンテンツ領域から本文テキストを抽出し、段落を空行で結合します。
func (e *Extractor) extractBodyText(doc *goquery.Document) string {
	mainContent := doc.Find(mainContentSelectors).First()
	if mainContent.Length() == 0 {
		mainContent = doc.Selection.
			Not("header, footer, nav, aside, .sidebar, script, style, form")
	}
	mainContent.Find(noiseSelectors).Remove()

	var parts []string
	mainContent.Find(textExtractionTags).Each(func(i int, s *goquery.Selection) {
		text := textUtils.NormalizeText(s.Text())
		if text == "" {
			return
		}
		if s.Is("h2, h3, h4, h5, h6") {
			if len(text) > MinHeadingLength {
				parts = append(parts, text)
			}
			return
		}
		if s.Is("li") || len(text) > MinParagraphLength {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

// ----------------------------------------------------------------------
// ヘルパー関数
// ----------------------------------------------------------------------

// NormalizeCategoryURL は、カテゴリURLを末尾スラッシュ1つの形に正規化します。
func NormalizeCategoryURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/") + "/"
}

// resolveLink は、hrefをbaseを基準に絶対URLへ解決します。
// http/https以外のスキームや空のリンクは除外されます。
func resolveLink(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, false
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil, false
	}
	if resolved.Host == "" {
		return nil, false
	}
	resolved.Fragment = ""
	return resolved, true
}

// pathChunks は、パスを空でないセグメントのリストに分割します。
func pathChunks(path string) []string {
	var chunks []string
	for _, c := range strings.Split(path, "/") {
		if c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}
