package crawler

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shouni/go-news-crawl/pkg/extract"
	"github.com/shouni/go-news-crawl/pkg/fetch"
)

// FindRedirectionURL は、1回のHEADリクエスト (リダイレクト追跡あり) でURLを
// 正規の末尾スラッシュ形へ正規化します。クロール開始前にソースの
// 訪問済みリンクキーを安定させる用途で使用します。
func FindRedirectionURL(ctx context.Context, fetcher *fetch.Client, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("URLのパースエラー: %w", err)
	}
	if parsed.Scheme == "" {
		rawURL = "http://" + rawURL
	}

	result, err := fetcher.Head(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("URL(%s)のリダイレクト解決に失敗しました: %w", rawURL, err)
	}
	return extract.NormalizeCategoryURL(result.FinalURL), nil
}
