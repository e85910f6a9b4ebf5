package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// 出品説明文とニュース記事の保存前に使用される。
type ContentSanitizerService interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 許可リストに含まれるタグのみを通過させ、script/iframe/styleタグと
	// on*イベント属性をすべて除去する。
	// imgタグのsrc属性はhttpsスキームのみ許可される。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列には空文字列を返し、同一入力には常に同一出力を返す。
	Sanitize(rawHTML string) string
}

// allowedContentElements はテキスト装飾と構造のみの許可タグ。
// 許可リストに含まれないタグ（script, iframe, style等）と
// on*イベント属性はbluemondayが自動的に除去する。
var allowedContentElements = []string{
	"p", "br", "ul", "ol", "li",
	"blockquote", "pre", "code",
	"strong", "em",
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

var _ ContentSanitizerService = (*contentSanitizer)(nil)

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{policy: newContentPolicy()}
}

// newContentPolicy は出品説明文・ニュース記事向けの許可リストポリシーを構築する。
func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedContentElements...)

	// リンク: hrefのみ許可。相対URLは外部由来のコンテンツでは解決できないため拒否。
	// 全リンクにtarget="_blank"とrel="noopener noreferrer"を強制付与する。
	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	// 画像: srcはhttpsのみ（http, javascript, data等は拒否）。altは許可。
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return p
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
