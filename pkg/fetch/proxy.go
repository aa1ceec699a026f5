package fetch

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// ProxyConfig は、スキーム ("http"/"https") からプロキシURL文字列へのマッピングです。
// すべてのプロキシ指定形式はこの形に正規化されてからトランスポートへ渡されます。
type ProxyConfig map[string]string

// ProxyEndpoint は、ホスト・ポート・認証情報によるプロキシ指定です。
type ProxyEndpoint struct {
	Host string
	Port string
	User string
	Pass string
}

var schemePrefixRegex = regexp.MustCompile(`^http(s)?://`)

// NormalizeProxy は、受け付け可能な3形式のプロキシ指定を ProxyConfig に正規化します。
//   - URL文字列 1つ: 全スキームに同じプロキシを適用
//   - スキーム→URL文字列のマッピング: そのまま採用
//   - スキーム→ProxyEndpoint のマッピング: URL文字列へ組み立て
func NormalizeProxy(proxy any) (ProxyConfig, error) {
	switch v := proxy.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return ProxyConfig{"http": v, "https": v}, nil
	case ProxyConfig:
		return v, nil
	case map[string]string:
		return ProxyConfig(v), nil
	case map[string]ProxyEndpoint:
		cfg := make(ProxyConfig, len(v))
		for scheme, ep := range v {
			cfg[scheme] = formatEndpoint(scheme, ep)
		}
		return cfg, nil
	default:
		return nil, fmt.Errorf("サポートされないプロキシ指定形式です: %T", proxy)
	}
}

// formatEndpoint は、1つの ProxyEndpoint をプロキシURL文字列へ組み立てます。
func formatEndpoint(scheme string, ep ProxyEndpoint) string {
	hostHasScheme := schemePrefixRegex.MatchString(ep.Host)

	if ep.User != "" {
		auth := ep.User + ":" + ep.Pass + "@"
		if hostHasScheme {
			prefix := schemePrefixRegex.FindString(ep.Host)
			return prefix + auth + schemePrefixRegex.ReplaceAllString(ep.Host, "") + ":" + ep.Port
		}
		return scheme + "://" + auth + ep.Host + ":" + ep.Port
	}

	if hostHasScheme {
		return ep.Host + ":" + ep.Port
	}
	return scheme + "://" + ep.Host + ":" + ep.Port
}

// newProxyTransport は、リクエストのスキームに応じてプロキシを選択するトランスポートを生成します。
func newProxyTransport(cfg ProxyConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		raw, ok := cfg[strings.ToLower(req.URL.Scheme)]
		if !ok || raw == "" {
			return nil, nil
		}
		return url.Parse(raw)
	}
	return transport
}
