package crawler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-news-crawl/pkg/extract"
	"github.com/shouni/go-news-crawl/pkg/fetch"
	"github.com/shouni/go-news-crawl/pkg/linkfilter"
)

const (
	// DefaultMaxConcurrency は、同時に処理するソース数のデフォルト値です。
	DefaultMaxConcurrency = 6
	// DefaultCategoryConcurrency は、1ソース内で同時に取得するカテゴリページ数のデフォルト値です。
	DefaultCategoryConcurrency = 4
)

// ErrNilCallback は、必須のコールバックが指定されなかったことを示す設定エラーです。
var ErrNilCallback = errors.New("クロール処理には訪問済みリンク取得と記事格納の2つのコールバックが必要です")

// Record は、1つの記事の最終的な構造化出力です。
// 生成後ただちに StoreFunc へ引き渡され、所有権は呼び出し側へ移ります。
type Record struct {
	Source      string `json:"source"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	Date        string `json:"date"` // ISO形式 YYYY-MM-DD
	Description string `json:"description"`
}

// StoreFunc は、解決済みの記事を受け取る呼び出し側のシンクです。
// 永続化の完了をクローラーは待ちません。内部のエラー処理は呼び出し側の責務です。
type StoreFunc func(record Record)

// Crawler は、複数のニュースソースを並行にクロールし、新規記事を発見します。
// 1つの Crawler は設定を読み取り専用で共有するため、複数のGoroutineから安全に利用できます。
type Crawler struct {
	fetcher             *fetch.Client
	extractor           *extract.Extractor
	logger              *zap.Logger
	maxConcurrency      int
	categoryConcurrency int
}

// Option は Crawler の生成時設定です。
type Option func(*Crawler)

// WithLogger は構造化ロガーを設定します (デフォルト: zap.NewNop)。
func WithLogger(logger *zap.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxConcurrency は同時に処理するソース数を設定します。
func WithMaxConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}

// WithCategoryConcurrency は1ソース内のカテゴリページ同時取得数を設定します。
func WithCategoryConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.categoryConcurrency = n
		}
	}
}

// New は、新しい Crawler を生成します。
func New(fetcher *fetch.Client, extractor *extract.Extractor, opts ...Option) (*Crawler, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("crawler.New: fetcher を nil にはできません")
	}
	if extractor == nil {
		return nil, fmt.Errorf("crawler.New: extractor を nil にはできません")
	}
	c := &Crawler{
		fetcher:             fetcher,
		extractor:           extractor,
		logger:              zap.NewNop(),
		maxConcurrency:      DefaultMaxConcurrency,
		categoryConcurrency: DefaultCategoryConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Scrap は、すべてのソースURLを並行にクロールし、発見した新規記事を store へ渡します。
// 個々のソースの失敗は隔離され、このメソッドは全タスクの完了後に戻ります。
// 記事データは store 経由でのみ観測され、戻り値には含まれません。
func (c *Crawler) Scrap(ctx context.Context, sourceURLs []string, lookup linkfilter.LookupFunc, store StoreFunc) error {
	// コールバック未指定はネットワークアクセス前に検出する設定エラー
	if lookup == nil || store == nil {
		return ErrNilCallback
	}

	// 共有クライアントの接続は全タスク完了後に必ず解放する
	defer c.fetcher.Close()

	// ソース間の失敗を伝播させないため、コンテキスト連動のないグループを使用する
	g := new(errgroup.Group)
	g.SetLimit(c.maxConcurrency)

	for _, sourceURL := range sourceURLs {
		g.Go(func() error {
			candidates, err := c.resolveMagazine(ctx, sourceURL, lookup)
			if err != nil {
				// 1つのソースの失敗はバッチ全体を中断させない
				c.logger.Error("ソースの解決に失敗しました",
					zap.String("source", sourceURL), zap.Error(err))
				return nil
			}
			c.processArticles(ctx, sourceURL, candidates, store)
			return nil
		})
	}

	_ = g.Wait()
	return nil
}
