package crawler

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shouni/go-news-crawl/pkg/extract"
)

// dateLayout は、emit時の公開日のISO形式です。
const dateLayout = "2006-01-02"

// dateLayouts は、抽出器が返す生の日付文字列の解釈を試みるレイアウトです。
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// processArticles は、1つのソースの候補URLを順番に処理します。
// 個々の候補の失敗はログに記録してスキップし、残りの候補の処理を継続します。
func (c *Crawler) processArticles(ctx context.Context, sourceURL string, candidates []string, store StoreFunc) {
	for _, articleURL := range candidates {
		if ctx.Err() != nil {
			c.logger.Warn("コンテキストが中断されたため記事処理を打ち切ります",
				zap.String("source", sourceURL), zap.Error(ctx.Err()))
			return
		}

		page, err := c.fetcher.Get(ctx, articleURL)
		if err != nil {
			c.logger.Warn("記事ページの取得に失敗しました",
				zap.String("url", articleURL), zap.Error(err))
			continue
		}

		article, err := c.extractor.ExtractArticle(page.Body, articleURL)
		if err != nil {
			c.logger.Warn("記事の抽出に失敗しました",
				zap.String("url", articleURL), zap.Error(err))
			continue
		}

		record := buildRecord(sourceURL, articleURL, article, time.Now().UTC())

		// シンクへの引き渡しは一方向であり、永続化の完了は待たない
		store(record)

		c.logger.Info("記事を処理しました",
			zap.String("source", sourceURL), zap.String("url", record.URL))
	}
}

// buildRecord は、抽出結果を正規化して最終的な Record を構築します。
func buildRecord(sourceURL, articleURL string, article *extract.Article, now time.Time) Record {
	url := article.CanonicalURL
	if url == "" {
		url = articleURL
	}

	title := article.Title
	description := article.MetaDescription
	if description == "" {
		description = title
	}
	text := strings.TrimSpace(article.Text)

	return Record{
		Source:      sourceURL,
		URL:         url,
		Title:       normalizeQuotes(title),
		Text:        normalizeQuotes(text),
		Date:        normalizePublishDate(article.PublishDate, now),
		Description: normalizeQuotes(description),
	}
}

// normalizePublishDate は、生の日付文字列を YYYY-MM-DD 形式へ正規化します。
// 構造を持たない非空文字列は最初の空白区切りトークンを採用し、
// 日付が発見できない場合は現在のUTC日付を既定値とします。
func normalizePublishDate(raw string, now time.Time) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "None" {
		return now.Format(dateLayout)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dateLayout)
		}
	}
	return strings.Fields(raw)[0]
}

// normalizeQuotes は、emit前にシングルクォートをダブルクォートへ置き換えます。
func normalizeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `"`)
}
