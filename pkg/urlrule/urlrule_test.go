package urlrule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestClassify は、URL分類の受理/拒否ルールを順にテストします。
func TestClassify(t *testing.T) {
	testCases := []struct {
		name        string
		url         string
		opts        Options
		expectedURL string
		expectedOK  bool
	}{
		{
			name:       "空文字列は拒否",
			url:        "",
			opts:       Options{IsArticle: true},
			expectedOK: false,
		},
		{
			name:       "mailtoリンクは拒否",
			url:        "mailto:editor@site.com",
			opts:       Options{IsArticle: true},
			expectedOK: false,
		},
		{
			name:       "スキームなしで親URLもない場合は拒否",
			url:        "/content/11/483/eaau6753",
			opts:       Options{IsArticle: true},
			expectedOK: false,
		},
		{
			name:        "絶対パスは親URLのスキームとホストで解決",
			url:         "/content/11/483/eaau6753",
			opts:        Options{IsArticle: true, ParentURL: "http://stm.sciencemag.org/"},
			expectedURL: "http://stm.sciencemag.org/content/11/483/eaau6753",
			expectedOK:  true,
		},
		{
			name:        "相対パスは親ディレクトリ基準で解決",
			url:         "news/2021/05/14/story",
			opts:        Options{IsArticle: true, ParentURL: "http://site.com"},
			expectedURL: "http://site.com/news/2021/05/14/story",
			expectedOK:  true,
		},
		{
			name:       "プロトコル相対URLは拒否",
			url:        "//cdn.site.com/asset/x",
			opts:       Options{IsArticle: true, ParentURL: "http://site.com/"},
			expectedOK: false,
		},
		{
			name:       "最短有効長未満のURLは拒否",
			url:        "http://x.c",
			opts:       Options{IsArticle: true},
			expectedOK: false,
		},
		{
			name:       "javascript疑似リンクは拒否",
			url:        "javascript:void(0)",
			opts:       Options{IsArticle: true, ParentURL: "http://site.com/"},
			expectedOK: false,
		},
		{
			name:        "フラグメントは除去される",
			url:         "http://site.com/stories/abc#comments",
			opts:        Options{IsArticle: true},
			expectedURL: "http://site.com/stories/abc",
			expectedOK:  true,
		},
		{
			name:       "メディア拡張子は拒否",
			url:        "http://stm.sciencemag.org/content/11/483/eaau6753.full.pdf",
			opts:       Options{IsArticle: true},
			expectedOK: false,
		},
		{
			name:        "許可された拡張子は受理対象",
			url:         "http://site.com/news/2021/05/14/story.html",
			opts:        Options{IsArticle: true},
			expectedURL: "http://site.com/news/2021/05/14/story.html",
			expectedOK:  true,
		},
		{
			name:       "同一ドメイン要求で別ドメインは拒否",
			url:        "http://other.com/news/story/x",
			opts:       Options{IsArticle: true, ParentURL: "http://site.com/", SameDomain: true},
			expectedOK: false,
		},
		{
			name:        "同一登録可能ドメインならサブドメインは許容",
			url:         "http://edition.cnn.com/world/asia",
			opts:        Options{IsArticle: true, ParentURL: "http://cnn.com/", SameDomain: true},
			expectedURL: "http://edition.cnn.com/world/asia",
			expectedOK:  true,
		},
		{
			name:        "非記事モードはドメイン検証のみで受理",
			url:         "http://site.com/careers",
			opts:        Options{IsArticle: false, ParentURL: "http://site.com/", SameDomain: true},
			expectedURL: "http://site.com/careers",
			expectedOK:  true,
		},
		{
			name:       "低価値ドメインは拒否",
			url:        "http://youtube.com/watch/abc123",
			opts:       Options{IsArticle: true},
			expectedOK: false,
		},
		{
			name:        "長いハイフン区切りスラグは単一セグメントでも受理",
			url:         "http://cnn.com/politics-senate-vote-debate-passes-today",
			opts:        Options{IsArticle: true},
			expectedURL: "http://cnn.com/politics-senate-vote-debate-passes-today",
			expectedOK:  true,
		},
		{
			name:        "長いアンダースコア区切りスラグも受理",
			url:         "http://site.com/breaking_news_about_the_long_election_result",
			opts:        Options{IsArticle: true},
			expectedURL: "http://site.com/breaking_news_about_the_long_election_result",
			expectedOK:  true,
		},
		{
			name:       "スラグがサイト名を含む場合はスラグでは受理されない",
			url:        "http://cnn.com/cnn-a-b-c-d-e",
			opts:       Options{IsArticle: true},
			expectedOK: false,
		},
		{
			name:       "パスセグメントが2未満の記事候補は拒否",
			url:        "http://site.com/onlyone",
			opts:       Options{IsArticle: true},
			expectedOK: false,
		},
		{
			name:       "ボイラープレートのパスセグメントは拒否",
			url:        "http://site.com/careers.html",
			opts:       Options{IsArticle: true, ParentURL: "http://site.com/"},
			expectedOK: false,
		},
		{
			name:       "ボイラープレートのサブドメインは拒否",
			url:        "http://careers.site.com/open/positions",
			opts:       Options{IsArticle: true},
			expectedOK: false,
		},
		{
			name:        "年月日パターンを含むURLは受理",
			url:         "http://site.com/news/2021/05/14/story",
			opts:        Options{IsArticle: true},
			expectedURL: "http://site.com/news/2021/05/14/story",
			expectedOK:  true,
		},
		{
			name:        "記事キーワードのセグメントを含むURLは受理",
			url:         "http://site.com/article/local-update",
			opts:        Options{IsArticle: true},
			expectedURL: "http://site.com/article/local-update",
			expectedOK:  true,
		},
		{
			name:       "既知のカテゴリページは拒否",
			url:        "http://site.com/topics/sports",
			opts:       Options{IsArticle: true, CategoryURLs: []string{"http://site.com/topics/sports/"}},
			expectedOK: false,
		},
		{
			name:        "カテゴリ指定なしの同URLはデフォルト受理",
			url:         "http://site.com/topics/sports",
			opts:        Options{IsArticle: true},
			expectedURL: "http://site.com/topics/sports",
			expectedOK:  true,
		},
		{
			name:       "indexセグメントは除去されてから判定される",
			url:        "http://site.com/world/index.html",
			opts:       Options{IsArticle: true},
			expectedOK: false, // "index" 除去後は1セグメントのみ
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actualURL, ok := Classify(tc.url, tc.opts)

			assert.Equal(t, tc.expectedOK, ok, "受理/拒否の判定が期待値と異なります")
			if tc.expectedOK {
				assert.Equal(t, tc.expectedURL, actualURL, "正規化されたURLが期待値と異なります")
			} else {
				assert.Empty(t, actualURL, "拒否時は空文字列が返されるべきです")
			}
		})
	}
}

// TestClassifyIdempotence は、受理済みURLを同一条件で再分類しても結果が変わらないことを検証します。
func TestClassifyIdempotence(t *testing.T) {
	opts := Options{IsArticle: true, ParentURL: "http://site.com/", SameDomain: true}

	first, ok := Classify("/news/2021/05/14/story#top", opts)
	assert.True(t, ok)

	second, ok := Classify(first, opts)
	assert.True(t, ok, "受理済みURLの再分類は受理されるべきです")
	assert.Equal(t, first, second, "再分類で正規化結果が変化してはいけません")
}

// TestURLToFiletype は、URLからのファイルタイプ抽出をテストします。
func TestURLToFiletype(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected string
	}{
		{"PDF拡張子", "http://x.co/a/b.pdf", "pdf"},
		{"拡張子なし", "http://x.co/a/b", ""},
		{"パスなし", "http://yahoo.com", ""},
		{"許可リストのHTML拡張子", "http://x.co/a/b.shtml", "shtml"},
		{"大文字拡張子は小文字化", "http://x.co/a/B.JPG", "jpg"},
		{"末尾スラッシュは無視", "http://x.co/a/b.htm/", "htm"},
		{"6文字以上の未知の拡張子", "http://x.co/a/b.verylong", ""},
		{"多重ドットは最後の拡張子", "http://x.co/a/b.full.pdf", "pdf"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, URLToFiletype(tc.url))
		})
	}
}

// TestIsBoilerplateChunk は、ボイラープレートセグメントの判定をテストします。
func TestIsBoilerplateChunk(t *testing.T) {
	assert.True(t, IsBoilerplateChunk("careers"))
	assert.True(t, IsBoilerplateChunk("video"))
	assert.False(t, IsBoilerplateChunk("world"))
	assert.False(t, IsBoilerplateChunk(""))
}
