package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// HTTPクライアント関連の定数
	DefaultTimeout = 30 * time.Second
	MaxBodySize    = int64(10 * 1024 * 1024) // レスポンスボディの最大読み込みサイズ

	// サイトからのブロックを避けるためのデフォルトUser-Agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"
)

// Doer はHTTPリクエストを実行する能力の抽象です。テストでの差し替えに利用します。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError はHTTPステータスコードによる失敗を示すエラー型です。
// 4xx系は非リトライ対象、5xx系はリトライ対象として扱われます。
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTPステータスコードエラー: %d, 詳細: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTPステータスコードエラー: %d", e.StatusCode)
}

// Result は1回のフェッチの成果です。
// FinalURL はリダイレクト追跡後の最終URLであり、要求したURLとは区別されます。
type Result struct {
	FinalURL string // リダイレクト解決後のURL
	Body     string // レスポンスボディ (HEADの場合は空)
}

// Client はHTTP GET/HEAD と指数バックオフによるリトライを管理します。
// 1つの Client は設定を読み取り専用で共有するため、複数のGoroutineから安全に利用できます。
type Client struct {
	httpClient      Doer
	retryConfig     retryConfig
	userAgent       string
	limiter         *rate.Limiter
	followRedirects bool
}

// Option は Client の生成時設定です。
type Option func(*Client)

// WithMaxRetries は最大リトライ回数を設定します。0でリトライを無効化します。
func WithMaxRetries(max uint64) Option {
	return func(c *Client) { c.retryConfig.maxRetries = max }
}

// WithUserAgent は送出する User-Agent ヘッダを設定します。
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit は1秒あたりのリクエスト数を制限するレートリミッターを設定します。
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithFollowRedirects はリダイレクトを追跡するかどうかを設定します (デフォルト: 追跡する)。
func WithFollowRedirects(follow bool) Option {
	return func(c *Client) { c.followRedirects = follow }
}

// WithHTTPClient は内部のHTTPクライアントを差し替えます。主にテスト用です。
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// WithProxy は正規化済みのプロキシ設定をトランスポートに適用します。
func WithProxy(cfg ProxyConfig) Option {
	return func(c *Client) {
		if len(cfg) == 0 {
			return
		}
		if hc, ok := c.httpClient.(*http.Client); ok {
			hc.Transport = newProxyTransport(cfg)
		}
	}
}

// New は、新しい Client を生成します。
func New(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		httpClient:      &http.Client{Timeout: timeout},
		retryConfig:     defaultRetryConfig(),
		userAgent:       DefaultUserAgent,
		followRedirects: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if hc, ok := c.httpClient.(*http.Client); ok && !c.followRedirects {
		hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return c
}

// Close は、保持しているアイドル接続を解放します。
// 1回のクロールバッチの完了後に呼び出します。
func (c *Client) Close() {
	if hc, ok := c.httpClient.(*http.Client); ok {
		hc.CloseIdleConnections()
	}
}

// Get はURLをGETし、リダイレクト解決後のURLとボディテキストを返します。
func (c *Client) Get(ctx context.Context, url string) (*Result, error) {
	return c.fetch(ctx, http.MethodGet, url)
}

// Head はURLにHEADリクエストを発行し、リダイレクト解決後のURLを返します。ボディは読みません。
func (c *Client) Head(ctx context.Context, url string) (*Result, error) {
	return c.fetch(ctx, http.MethodHead, url)
}

// fetch はリトライ付きで1つのHTTPリクエストを実行します。
func (c *Client) fetch(ctx context.Context, method, url string) (*Result, error) {
	var result *Result
	op := func() error {
		var fetchErr error
		result, fetchErr = c.doFetch(ctx, method, url)
		return fetchErr
	}
	err := c.retry(ctx, fmt.Sprintf("URL(%s)への%s", url, method), op)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// doFetch は実際の一度のHTTPリクエストを実行します。
func (c *Client) doFetch(ctx context.Context, method, url string) (*Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("レートリミッター待機中に中断されました: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	// リダイレクト追跡後の最終URLを要求URLと区別して報告する
	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	result := &Result{FinalURL: finalURL}
	if method != http.MethodHead {
		bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
		if err != nil {
			return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
		}
		result.Body = string(bodyBytes)
	}
	return result, nil
}

// checkStatus はレスポンスのステータスコードを評価し、失敗を型付きエラーに変換します。
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(bodyBytes)),
	}
}

// isRetryable はエラーがリトライ対象かどうかを判定します。
// 4xx系のステータスエラーのみ非リトライ対象とし、5xx系およびネットワークエラーはリトライします。
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	return true
}
