package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-news-crawl/pkg/crawler"
	"github.com/shouni/go-news-crawl/pkg/extract"
	"github.com/shouni/go-news-crawl/pkg/linkfilter"
)

// コマンドラインフラグ変数を定義
var (
	inputURLs   string // --urls フラグで受け取るカンマ区切りのソースURLリスト
	visitedFile string // --visited フラグで受け取る訪問済みリンクのJSONファイル
	deadlineSec int    // --deadline フラグで受け取るバッチ全体の締め切り (秒)
)

// loadVisitedStore は、訪問済みリンクのJSONファイル (ソースURL → URLリスト) を読み込み、
// クローラーへ渡す参照コールバックを構築します。ファイル未指定時は空集合を返します。
func loadVisitedStore(path string) (linkfilter.LookupFunc, error) {
	store := map[string][]string{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("訪問済みリンクファイルの読み込みエラー: %w", err)
		}
		if err := json.Unmarshal(data, &store); err != nil {
			return nil, fmt.Errorf("訪問済みリンクファイルの解析エラー: %w", err)
		}
	}

	return func(sourceURL string) (map[string]struct{}, error) {
		visited := make(map[string]struct{}, len(store[sourceURL]))
		for _, u := range store[sourceURL] {
			visited[u] = struct{}{}
		}
		return visited, nil
	}, nil
}

// readSourceURLs は、フラグまたは標準入力からソースURLのリストを読み取ります。
func readSourceURLs() ([]string, error) {
	var urls []string
	if inputURLs != "" {
		for _, u := range strings.Split(inputURLs, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
	} else {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if u := strings.TrimSpace(scanner.Text()); u != "" {
				urls = append(urls, u)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("標準入力の読み取りエラー: %w", err)
		}
	}

	// スキーム補完とバリデーション
	for i, u := range urls {
		normalized, err := ensureScheme(u)
		if err != nil {
			return nil, err
		}
		urls[i] = normalized
	}
	return urls, nil
}

var scrapCmd = &cobra.Command{
	Use:   "scrap",
	Short: "ソースURL群をクロールし、新規記事をJSON Linesで出力します",
	Long: `--urls フラグでカンマ区切りのソースURLリストを受け取るか、標準入力からURLを一行ずつ読み込み、
各ソースのカテゴリページを辿って新規記事を発見し、1記事1行のJSONとして標準出力へ書き出します。
--visited で指定したJSONファイル (ソースURL → 既知URLの配列) は重複抑止に使用されます。`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		logger := GetGlobalLogger()

		// 1. 処理対象ソースURLのリストを決定
		urls, err := readSourceURLs()
		if err != nil {
			return err
		}
		if len(urls) == 0 {
			return fmt.Errorf("処理対象のソースURLが一つも指定されていません")
		}

		// 2. 訪問済みリンク参照の構築
		lookup, err := loadVisitedStore(visitedFile)
		if err != nil {
			return err
		}

		// 3. 依存性の初期化 (Fetcher -> Extractor -> Crawler)
		c, err := crawler.New(
			GetGlobalFetcher(),
			extract.NewExtractor(),
			crawler.WithLogger(logger),
			crawler.WithMaxConcurrency(Flags.Concurrency),
		)
		if err != nil {
			return fmt.Errorf("Crawlerの初期化エラー: %w", err)
		}

		// 4. 記事シンク: 1記事1行のJSONを標準出力へ書き出す
		encoder := json.NewEncoder(os.Stdout)
		var mu sync.Mutex
		store := func(record crawler.Record) {
			mu.Lock()
			defer mu.Unlock()
			if err := encoder.Encode(record); err != nil {
				logger.Error("記事の書き出しに失敗しました", zap.Error(err))
			}
		}

		// 5. バッチ全体のコンテキストを設定
		ctx := context.Background()
		if deadlineSec > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(deadlineSec)*time.Second)
			defer cancel()
		}

		// 6. メインロジックの実行
		return c.Scrap(ctx, urls, lookup, store)
	},
}

func init() {
	scrapCmd.Flags().StringVarP(&inputURLs, "urls", "u", "",
		"クロール対象のカンマ区切りソースURLリスト (例: url1,url2,url3)")
	scrapCmd.Flags().StringVar(&visitedFile, "visited", "",
		"訪問済みリンクのJSONファイル (ソースURL → URL配列のマッピング)")
	scrapCmd.Flags().IntVar(&deadlineSec, "deadline", 0,
		"バッチ全体の締め切り（秒、0で無制限）")
}
