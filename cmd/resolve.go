package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/go-news-crawl/pkg/crawler"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [URL]",
	Short: "URLのリダイレクトを解決し、正規化された最終URLを表示します",
	Long: `1回のHEADリクエストでリダイレクトを追跡し、末尾スラッシュ付きに正規化された
最終URLを表示します。クロール前にソースの訪問済みリンクキーを安定させる用途に使用します。`,
	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		overallTimeout := time.Duration(Flags.TimeoutSec*2) * time.Second
		ctx, cancel := context.WithTimeout(context.Background(), overallTimeout)
		defer cancel()

		finalURL, err := crawler.FindRedirectionURL(ctx, GetGlobalFetcher(), args[0])
		if err != nil {
			return fmt.Errorf("リダイレクト解決エラー (URL: %s): %w", args[0], err)
		}

		fmt.Println(finalURL)
		return nil
	},
}
