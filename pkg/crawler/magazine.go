package crawler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-news-crawl/pkg/extract"
	"github.com/shouni/go-news-crawl/pkg/linkfilter"
	"github.com/shouni/go-news-crawl/pkg/urlrule"
)

// Magazine は、1つのソースの解決中にのみ存在するインメモリの集約です。
// 構築後は変更されず、候補リンクの抽出が終われば破棄されます。
type Magazine struct {
	SourceURL  string   // 呼び出し側から与えられたソースURL
	URL        string   // リダイレクト解決後のフロントページURL (末尾スラッシュ付き)
	Categories []string // 発見されたカテゴリページ (フロントページ自身を含む)
	Feeds      []string // 発見されたRSS/AtomフィードURL
	Candidates []string // 分類を通過した記事候補URL (訪問済みフィルタ適用前)
}

// resolveMagazine は、1つのソースを解決し、訪問済みフィルタ適用後の候補リストを返します。
func (c *Crawler) resolveMagazine(ctx context.Context, sourceURL string, lookup linkfilter.LookupFunc) ([]string, error) {
	magazine, err := c.buildMagazine(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	c.logger.Info("フィルタ前の候補記事数",
		zap.String("source", sourceURL), zap.Int("count", len(magazine.Candidates)))

	candidates, err := linkfilter.Filter(sourceURL, magazine.Candidates, lookup, linkfilter.DefaultOptions())
	if err != nil {
		return nil, err
	}

	c.logger.Info("フィルタ後の候補記事数",
		zap.String("source", sourceURL), zap.Int("count", len(candidates)))
	return candidates, nil
}

// buildMagazine は、フロントページの取得からカテゴリ/フィードの解析までを段階的に実行し、
// 完成した Magazine 値を返します。各段階は新しい値を構築し、共有状態を変更しません。
func (c *Crawler) buildMagazine(ctx context.Context, sourceURL string) (*Magazine, error) {
	// 1. フロントページを取得し、リダイレクト解決後のURLを基準とする
	front, err := c.fetcher.Get(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("フロントページの取得に失敗しました: %w", err)
	}
	finalURL := extract.NormalizeCategoryURL(front.FinalURL)

	// 2. カテゴリページを発見する。フロントページ自身も記事を直接並べている
	//    可能性があるため、未発見であればカテゴリとして追加する
	categories := c.extractor.DiscoverCategories(front.Body, finalURL)
	if !containsURL(categories, finalURL) {
		categories = append(categories, finalURL)
	}

	// 3. RSS/Atomフィードを発見する (補助的な候補リンク源)
	feeds := c.extractor.DiscoverFeeds(front.Body, finalURL)

	// 4. カテゴリページとフィードを並行に取得し、記事候補を収集する
	candidates := c.collectCandidates(ctx, finalURL, categories, feeds)

	return &Magazine{
		SourceURL:  sourceURL,
		URL:        finalURL,
		Categories: categories,
		Feeds:      feeds,
		Candidates: candidates,
	}, nil
}

// collectCandidates は、各カテゴリページ/フィードからリンクを取り出し、
// 記事モードのURL分類を通過したものを1つの重複なしリストに集約します。
// 個々のページの取得失敗はログに記録され、他のページの処理を妨げません。
func (c *Crawler) collectCandidates(ctx context.Context, magazineURL string, categories, feeds []string) []string {
	var (
		mu        sync.Mutex
		collected []string
	)

	classify := func(links []string) []string {
		var accepted []string
		for _, link := range links {
			normalized, ok := urlrule.Classify(link, urlrule.Options{
				IsArticle:    true,
				ParentURL:    magazineURL,
				SameDomain:   true,
				CategoryURLs: categories,
			})
			if ok {
				accepted = append(accepted, normalized)
			}
		}
		return accepted
	}

	g := new(errgroup.Group)
	g.SetLimit(c.categoryConcurrency)

	for _, categoryURL := range categories {
		g.Go(func() error {
			page, err := c.fetcher.Get(ctx, categoryURL)
			if err != nil {
				c.logger.Warn("カテゴリページの取得に失敗しました",
					zap.String("category", categoryURL), zap.Error(err))
				return nil
			}
			accepted := classify(c.extractor.ExtractLinks(page.Body, categoryURL))

			mu.Lock()
			collected = append(collected, accepted...)
			mu.Unlock()
			return nil
		})
	}

	for _, feedURL := range feeds {
		g.Go(func() error {
			page, err := c.fetcher.Get(ctx, feedURL)
			if err != nil {
				c.logger.Warn("フィードの取得に失敗しました",
					zap.String("feed", feedURL), zap.Error(err))
				return nil
			}
			links, err := c.extractor.ParseFeedLinks(page.Body)
			if err != nil {
				c.logger.Warn("フィードの解析に失敗しました",
					zap.String("feed", feedURL), zap.Error(err))
				return nil
			}
			accepted := classify(links)

			mu.Lock()
			collected = append(collected, accepted...)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	return dedupe(collected)
}

// SourceSnapshot は、訪問済みフィルタを適用せずに1つのソースの現在の候補一覧を返します。
// ソースの状態確認やデバッグ用途を想定しています。
func (c *Crawler) SourceSnapshot(ctx context.Context, sourceURL string) (*Magazine, error) {
	return c.buildMagazine(ctx, sourceURL)
}

// dedupe は、出現順を保ちながら重複を取り除きます。
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	var unique []string
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		unique = append(unique, u)
	}
	return unique
}

func containsURL(urls []string, target string) bool {
	for _, u := range urls {
		if u == target {
			return true
		}
	}
	return false
}
