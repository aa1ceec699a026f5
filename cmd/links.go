package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/go-news-crawl/pkg/crawler"
	"github.com/shouni/go-news-crawl/pkg/extract"
)

var linksCmd = &cobra.Command{
	Use:   "links [URL]",
	Short: "1つのソースの現在の候補記事リンクを一覧表示します",
	Long: `指定されたソースURLのフロントページを解決し、発見されたカテゴリ・フィードと
分類を通過した候補記事URLを (訪問済みフィルタを適用せずに) 表示します。`,
	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		sourceURL, err := ensureScheme(args[0])
		if err != nil {
			return fmt.Errorf("URLスキームの処理エラー: %w", err)
		}

		c, err := crawler.New(
			GetGlobalFetcher(),
			extract.NewExtractor(),
			crawler.WithLogger(GetGlobalLogger()),
		)
		if err != nil {
			return fmt.Errorf("Crawlerの初期化エラー: %w", err)
		}

		// 全体処理のタイムアウトはクライアントタイムアウトの10倍とする
		overallTimeout := time.Duration(Flags.TimeoutSec*10) * time.Second
		ctx, cancel := context.WithTimeout(context.Background(), overallTimeout)
		defer cancel()

		magazine, err := c.SourceSnapshot(ctx, sourceURL)
		if err != nil {
			return fmt.Errorf("ソースの解決エラー (URL: %s): %w", sourceURL, err)
		}

		fmt.Printf("ソース: %s (解決後: %s)\n", magazine.SourceURL, magazine.URL)
		fmt.Printf("--- カテゴリ (%d件) ---\n", len(magazine.Categories))
		for _, cat := range magazine.Categories {
			fmt.Println(cat)
		}
		if len(magazine.Feeds) > 0 {
			fmt.Printf("--- フィード (%d件) ---\n", len(magazine.Feeds))
			for _, feed := range magazine.Feeds {
				fmt.Println(feed)
			}
		}
		fmt.Printf("--- 候補記事 (%d件) ---\n", len(magazine.Candidates))
		for _, candidate := range magazine.Candidates {
			fmt.Println(candidate)
		}
		return nil
	},
}
