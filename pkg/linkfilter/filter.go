package linkfilter

import (
	"fmt"

	"github.com/shouni/go-news-crawl/pkg/urlrule"
)

// LookupFunc は、呼び出し側が所有する訪問済みリンク集合を取得する能力です。
// 1つのソースURLに対して、既知のURL集合を返します。
// このパッケージは集合を読み取るのみで、変更や永続化は行いません。
type LookupFunc func(sourceURL string) (map[string]struct{}, error)

// Options は Filter の動作を制御します。DefaultOptions が通常のクロール設定です。
type Options struct {
	ExcludeKnownVisited bool // 訪問済みURLを再検証せずそのまま既知として扱うか
	NewOnly             bool // 訪問済み集合に含まれる候補を除外するか
	SameDomain          bool // ソースと登録可能ドメインが一致する候補のみを残すか
}

// DefaultOptions は通常のクロールで使用するフィルタ設定を返します。
func DefaultOptions() Options {
	return Options{
		ExcludeKnownVisited: true,
		NewOnly:             true,
		SameDomain:          true,
	}
}

// Filter は、候補URL群から訪問済み・別ドメインのものを除外し、重複のないリストを返します。
// 訪問済みリンクの取得失敗は、重複抑止が機能しなくなるためこのソースにとって
// 致命的であり、エラーとして伝播させます (握り潰しません)。
func Filter(sourceURL string, candidates []string, lookup LookupFunc, opts Options) ([]string, error) {
	visited, err := lookup(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("ソース %s の訪問済みリンク取得に失敗しました: %w", sourceURL, err)
	}
	if visited == nil {
		visited = map[string]struct{}{}
	}

	// 訪問済みURL自体を記事として再検証し、記事でないものは既知として扱わない
	if !opts.ExcludeKnownVisited {
		revalidated := make(map[string]struct{}, len(visited))
		for v := range visited {
			if _, ok := urlrule.Classify(v, urlrule.Options{IsArticle: true, ParentURL: sourceURL}); ok {
				revalidated[v] = struct{}{}
			}
		}
		visited = revalidated
	}

	srcDomain := urlrule.RegistrableDomain(sourceURL)

	seen := make(map[string]struct{}, len(candidates))
	var filtered []string
	for _, cand := range candidates {
		if _, dup := seen[cand]; dup {
			continue
		}
		seen[cand] = struct{}{}

		if opts.NewOnly {
			if _, known := visited[cand]; known {
				continue
			}
		}
		if opts.SameDomain && urlrule.RegistrableDomain(cand) != srcDomain {
			continue
		}
		filtered = append(filtered, cand)
	}
	return filtered, nil
}
