package urlrule

import (
	"net/url"
	"regexp"
	"strings"
)

// ----------------------------------------------------------------------
// 定数定義 (判定ルール関連)
// ----------------------------------------------------------------------

const (
	// MinURLLength は有効なURLの最短長です。最短の有効URLは http://x.co の11文字です。
	MinURLLength = 11

	// MaxFiletypeLength は拡張子として解釈する最大文字数です。
	MaxFiletypeLength = 5
)

// dateRegex は、URL中の年月日パターン (例: /2021/05/14/) を検出します。
var dateRegex = regexp.MustCompile(`([\./\-_]{0,1}(19|20)\d{2})[\./\-_]{0,1}(([0-3]{0,1}[0-9][\./\-_])|(\w{3,5}[\./\-_]))([0-3]{0,1}[0-9][\./\-]{0,1})?`)

// allowedTypes は、HTMLドキュメントとして扱う拡張子の許可リストです。
// これ以外の拡張子を持つURLはメディア/バイナリ資産として拒否されます。
var allowedTypes = map[string]bool{
	"html": true, "htm": true, "md": true, "rst": true, "aspx": true,
	"jsp": true, "rhtml": true, "cgi": true, "xhtml": true, "jhtml": true,
	"asp": true, "shtml": true,
}

// goodPaths は、記事URLである強い証拠となるパスセグメントです。
var goodPaths = map[string]bool{
	"story": true, "article": true, "feature": true, "featured": true,
	"slides": true, "news": true, "v": true, "press": true,
}

// badChunks は、ナビゲーション/ボイラープレートを示すパスセグメントおよびサブドメインです。
var badChunks = []string{
	"careers", "contact", "contacto", "about", "faq", "terms", "privacy",
	"advert", "preferences", "preferencias", "feedback", "info", "browse", "howto",
	"account", "subscribe", "donate", "shop", "admin", "user", "usuario", "login", "logout",
	"media", "audio", "video", "videos", "gallery", "galeria", "powerpoint",
}

// badDomains は、記事配信元として価値の低いドメインラベルです。
// サフィックスを除いた第二レベルラベルのみと比較します。
var badDomains = map[string]bool{
	"amazon": true, "doubleclick": true, "twitter": true, "facebook": true, "youtube": true,
}

// ----------------------------------------------------------------------
// 分類オプションと分類関数
// ----------------------------------------------------------------------

// Options は Classify の判定動作を制御します。
type Options struct {
	IsArticle    bool     // 記事モードの追加ヒューリスティクスを適用するか
	ParentURL    string   // 相対URLの解決および同一ドメイン比較の基準URL
	SameDomain   bool     // 登録可能ドメイン(domain+suffix)の一致を要求するか
	CategoryURLs []string // 既知のカテゴリページURL (末尾スラッシュ付きで正規化済み)
}

// Classify は、URL文字列が妥当な(記事)URLかどうかを判定します。
// 受理された場合は正規化済みの絶対URLと true を返し、拒否された場合は空文字列と false を返します。
// この関数は純粋であり、いかなる入力に対してもI/Oやpanicを発生させません。
func Classify(rawURL string, opts Options) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	if strings.Contains(rawURL, "mailto:") {
		return "", false
	}

	// 1. スキームを欠くURLを ParentURL を基準に絶対URLへ解決
	if !strings.Contains(rawURL, "http://") && !strings.Contains(rawURL, "https://") {
		if opts.ParentURL == "" || strings.Contains(rawURL, "//") {
			return "", false
		}
		resolved, ok := resolveAgainstParent(rawURL, opts.ParentURL)
		if !ok {
			return "", false
		}
		rawURL = resolved
	}

	// 2. 構造上短すぎるURLと擬似リンクを拒否
	if len(rawURL) < MinURLLength {
		return "", false
	}
	if strings.Contains(rawURL, "javascript:void") {
		return "", false
	}

	// 3. フラグメントは情報を持たないため除去
	if i := strings.Index(rawURL, "#"); i >= 0 {
		rawURL = rawURL[:i]
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	// 4. パスが "/" で始まらないURLは不正なパース結果とみなす
	path := parsed.Path
	if !strings.HasPrefix(path, "/") {
		return "", false
	}

	// 末尾の "/" は情報を持たない
	path = strings.TrimSuffix(path, "/")
	chunks := splitPath(path)

	// 5. 拡張子からファイルタイプを推定し、メディア資産を即時拒否
	if len(chunks) > 0 {
		if ft := URLToFiletype(rawURL); ft != "" && !allowedTypes[ft] {
			return "", false
		}
		// 拡張子は以後の解析に不要なため最終セグメントから取り除く
		if parts := strings.Split(chunks[len(chunks)-1], "."); len(parts) > 1 {
			chunks[len(chunks)-1] = parts[len(parts)-2]
		}
	}

	// 6. 同一ドメイン要求: 登録可能ドメイン(domain+suffix)の完全一致
	if opts.SameDomain && !SameRegistrableDomain(rawURL, opts.ParentURL) {
		return "", false
	}

	// 記事モードでなければ、ここまでの検証で受理 (汎用リンク収集用)
	if !opts.IsArticle {
		return rawURL, true
	}

	return classifyArticle(rawURL, parsed, chunks, opts)
}

// classifyArticle は、記事モード固有のヒューリスティクスを順に適用します。
func classifyArticle(rawURL string, parsed *url.URL, chunks []string, opts Options) (string, bool) {
	// "index" セグメントは何の手掛かりにもならない
	for i, c := range chunks {
		if c == "index" {
			chunks = append(chunks[:i], chunks[i+1:]...)
			break
		}
	}

	subd, label, _ := DomainParts(parsed.Hostname())
	tld := strings.ToLower(label)

	if badDomains[tld] {
		return "", false
	}

	var slug string
	if len(chunks) > 0 {
		slug = chunks[len(chunks)-1]
	}
	dashCount := strings.Count(slug, "-")
	underscoreCount := strings.Count(slug, "_")

	// 長いハイフン/アンダースコア区切りのスラグは、サイト名の繰り返しでない限り
	// それ自体が記事である強い証拠となる
	if slug != "" && (dashCount > 4 || underscoreCount > 4) {
		if dashCount >= underscoreCount {
			if !containsToken(strings.Split(slug, "-"), tld) {
				return rawURL, true
			}
		}
		if underscoreCount > dashCount {
			if !containsToken(strings.Split(slug, "_"), tld) {
				return rawURL, true
			}
		}
	}

	// 記事には最低2つのパスセグメントを要求する
	if len(chunks) <= 1 {
		return "", false
	}

	// サブドメインとパスに含まれるボイラープレートの兆候を検査
	// 例: http://cnn.com/careers.html や careers.cnn.com は拒否
	for _, b := range badChunks {
		if b == subd {
			return "", false
		}
		for _, c := range chunks {
			if c == b {
				return "", false
			}
		}
	}

	// 年月日パターンを含むURLは記事
	if dateRegex.MatchString(rawURL) {
		return rawURL, true
	}

	// 記事を示すキーワードセグメントを含むURLは記事
	for _, c := range chunks {
		if goodPaths[strings.ToLower(c)] {
			return rawURL, true
		}
	}

	// 既知のカテゴリページそのものは記事ではない
	if len(opts.CategoryURLs) > 0 {
		withSlash := strings.TrimRight(rawURL, "/") + "/"
		for _, cat := range opts.CategoryURLs {
			if withSlash == cat {
				return "", false
			}
		}
	}

	return rawURL, true
}

// resolveAgainstParent は、スキームを持たないURLを親URLを基準に絶対URLへ変換します。
func resolveAgainstParent(rawURL, parentURL string) (string, bool) {
	if strings.HasPrefix(rawURL, "/") {
		parent, err := url.Parse(parentURL)
		if err != nil || parent.Scheme == "" || parent.Host == "" {
			return "", false
		}
		return parent.Scheme + "://" + parent.Host + rawURL, true
	}
	prefix := parentURL
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + rawURL, true
}

// URLToFiletype は、URLが指すファイルの拡張子を小文字で返します。
// 拡張子を持たない場合、および許可リスト外の長すぎる拡張子の場合は空文字列を返します。
// 例: 'http://blahblah/images/car.jpg' -> 'jpg' / 'http://yahoo.com' -> ''
func URLToFiletype(absURL string) string {
	parsed, err := url.Parse(absURL)
	if err != nil {
		return ""
	}
	path := strings.TrimSuffix(parsed.Path, "/")
	chunks := splitPath(path)
	if len(chunks) == 0 {
		return ""
	}
	parts := strings.Split(chunks[len(chunks)-1], ".")
	if len(parts) < 2 {
		return ""
	}
	fileType := strings.ToLower(parts[len(parts)-1])
	if len(fileType) <= MaxFiletypeLength || allowedTypes[fileType] {
		return fileType
	}
	return ""
}

// splitPath は、パスを空でないセグメントのリストに分割します。
func splitPath(path string) []string {
	var chunks []string
	for _, c := range strings.Split(path, "/") {
		if c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// IsBoilerplateChunk は、セグメントがナビゲーション/ボイラープレートの兆候かどうかを返します。
func IsBoilerplateChunk(segment string) bool {
	for _, b := range badChunks {
		if segment == b {
			return true
		}
	}
	return false
}

// containsToken は、トークンリストに target (小文字比較) が含まれるかを返します。
func containsToken(tokens []string, target string) bool {
	for _, t := range tokens {
		if strings.ToLower(t) == target {
			return true
		}
	}
	return false
}
