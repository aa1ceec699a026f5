package urlrule

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DomainParts は、ホスト名をサブドメイン・第二レベルラベル・公開サフィックスに分解します。
// 例: "edition.cnn.com" -> ("edition", "cnn", "com")
// パブリックサフィックスリストに基づき判定するため、"www.bbc.co.uk" の
// サフィックスは "co.uk" となります。判定不能な場合は空文字列を返します。
func DomainParts(host string) (sub, label, suffix string) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return "", "", ""
	}
	suffix, _ = publicsuffix.PublicSuffix(host)
	if suffix == host {
		return "", "", suffix
	}
	rest := strings.TrimSuffix(host, "."+suffix)
	if i := strings.LastIndex(rest, "."); i >= 0 {
		return rest[:i], rest[i+1:], suffix
	}
	return "", rest, suffix
}

// RegistrableDomain は、URLの登録可能ドメイン (domain+suffix) を返します。
// 同一サイト比較にはサブドメインを無視したこの値を使用します。
func RegistrableDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	_, label, suffix := DomainParts(parsed.Hostname())
	if label == "" {
		return ""
	}
	if suffix == "" {
		return label
	}
	return label + "." + suffix
}

// SameRegistrableDomain は、2つのURLが登録可能ドメインを共有するかを判定します。
// 第二レベルラベルとサフィックスの双方が一致する場合のみ true を返します。
func SameRegistrableDomain(urlA, urlB string) bool {
	parsedA, errA := url.Parse(urlA)
	parsedB, errB := url.Parse(urlB)
	if errA != nil || errB != nil {
		return false
	}
	_, labelA, suffixA := DomainParts(parsedA.Hostname())
	_, labelB, suffixB := DomainParts(parsedB.Hostname())
	if labelA == "" || labelB == "" {
		return false
	}
	return labelA == labelB && suffixA == suffixB
}
