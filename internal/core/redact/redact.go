package redact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// ErrRedaction はPII除去パイプラインの失敗を表すエラーです
// タガー障害などで完全な編集が保証できない場合に返されます
var ErrRedaction = errors.New("redaction failed")

// Category は編集対象PIIの分類です
type Category string

const (
	CategoryName         Category = "NAME"
	CategoryEmail        Category = "EMAIL"
	CategoryPhone        Category = "PHONE"
	CategoryAddress      Category = "ADDRESS"
	CategoryLocation     Category = "LOCATION"
	CategoryOrganization Category = "ORG"
	CategoryURL          Category = "URL"
	CategoryDOB          Category = "DOB"
)

// Placeholder はこのカテゴリの置換トークンを返します
func (c Category) Placeholder() string {
	return "[" + string(c) + "]"
}

// Span はテキスト中のバイトオフセット範囲 [Start, End) を表します
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Finding は編集された1スパンの記録です
// マニフェストは監査・テスト用であり、復元には使用されません
type Finding struct {
	Span     Span     `json:"span"`
	Category Category `json:"category"`
	Snippet  string   `json:"snippet"`
}

// Entity は固有表現タガーが返す1スパンです
type Entity struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// EntityTagger は外部の固有表現認識サービスへのインターフェース
// テスト時のスタブ用に消費者側で定義
type EntityTagger interface {
	Tag(ctx context.Context, text string) ([]Entity, error)
}

// 構造的に規則性のあるPIIの正規表現パターン
var regexPatterns = []struct {
	category Category
	re       *regexp.Regexp
}{
	{CategoryEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)},
	{CategoryDOB, regexp.MustCompile(`(?i)\b(?:Date\s+of\s+Birth|DOB|Born\s+on)[:\s]+\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`)},
	{CategoryAddress, regexp.MustCompile(`(?i)\b\d{1,5}\s+[A-Za-z\s]{3,40}(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Way|Place|Pl)\b`)},
	{CategoryPhone, regexp.MustCompile(`\+?\d[\d\s\-().]{7,}\d`)},
	{CategoryURL, regexp.MustCompile(`(?i)linkedin\.com/in/[\w\-]+|github\.com/[\w\-]+|https?://\S+|www\.\S+`)},
}

// entityLabelCategories は固有表現タガーのラベルを編集カテゴリに対応付けます
// 対応のないラベルは編集対象外です
var entityLabelCategories = map[string]Category{
	"PERSON":       CategoryName,
	"PER":          CategoryName,
	"GPE":          CategoryLocation,
	"LOC":          CategoryLocation,
	"LOCATION":     CategoryLocation,
	"ORG":          CategoryOrganization,
	"ORGANIZATION": CategoryOrganization,
}

// Redactor は正規表現パスと固有表現タガーパスを重ねてPIIを除去します
type Redactor struct {
	tagger EntityTagger
	logger *slog.Logger
}

type redactorOptions struct {
	logger *slog.Logger
}

// RedactorOption は Redactor のオプション設定
type RedactorOption func(*redactorOptions)

// WithRedactorLogger は Redactor にロガーを設定する
func WithRedactorLogger(logger *slog.Logger) RedactorOption {
	return func(o *redactorOptions) {
		o.logger = logger
	}
}

// NewRedactor は新しい Redactor を作成します
func NewRedactor(tagger EntityTagger, opts ...RedactorOption) *Redactor {
	options := redactorOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Redactor{
		tagger: tagger,
		logger: options.logger,
	}
}

// Redact は正規化済みテキストからPIIを除去し、編集後テキストと
// マニフェストを返します
//
// 2つのパスの検出結果を統合し、重複するスパンは最長のものを採用します。
// 各スパンはカテゴリのプレースホルダトークンで完全に置換され、
// 部分的な編集は発生しません。タガーが失敗した場合はエラーを返し、
// 元テキストは結果に含まれません
func (r *Redactor) Redact(ctx context.Context, text string) (string, []Finding, error) {
	if text == "" {
		return "", nil, nil
	}

	var candidates []Finding

	// パス(a): 正規表現による構造的PIIの検出
	for _, p := range regexPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			candidates = append(candidates, Finding{
				Span:     Span{Start: loc[0], End: loc[1]},
				Category: p.category,
				Snippet:  text[loc[0]:loc[1]],
			})
		}
	}

	// パス(b): 固有表現タガーによる人名・地名・組織名の検出
	entities, err := r.tagger.Tag(ctx, text)
	if err != nil {
		return "", nil, fmt.Errorf("%w: failed to tag entities: %w", ErrRedaction, err)
	}
	for _, ent := range entities {
		category, ok := entityLabelCategories[strings.ToUpper(ent.Label)]
		if !ok {
			continue
		}
		if ent.Start < 0 || ent.End > len(text) || ent.Start >= ent.End {
			r.logger.Warn("エンティティのスパンが範囲外のため無視します",
				"start", ent.Start, "end", ent.End, "label", ent.Label)
			continue
		}
		candidates = append(candidates, Finding{
			Span:     Span{Start: ent.Start, End: ent.End},
			Category: category,
			Snippet:  text[ent.Start:ent.End],
		})
	}

	findings := mergeLongestWins(candidates)

	// スパンを前から順にプレースホルダへ置換
	var b strings.Builder
	prev := 0
	for _, f := range findings {
		b.WriteString(text[prev:f.Span.Start])
		b.WriteString(f.Category.Placeholder())
		prev = f.Span.End
	}
	b.WriteString(text[prev:])

	return b.String(), findings, nil
}

// mergeLongestWins は重複する検出スパンを最長優先で統合し、
// 開始位置の昇順で返します
func mergeLongestWins(candidates []Finding) []Finding {
	if len(candidates) == 0 {
		return nil
	}

	// 長いスパン優先、同長なら開始位置が早いもの優先
	sorted := make([]Finding, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		li := sorted[i].Span.End - sorted[i].Span.Start
		lj := sorted[j].Span.End - sorted[j].Span.Start
		if li != lj {
			return li > lj
		}
		return sorted[i].Span.Start < sorted[j].Span.Start
	})

	var kept []Finding
	for _, candidate := range sorted {
		overlaps := false
		for _, existing := range kept {
			if candidate.Span.Start < existing.Span.End && existing.Span.Start < candidate.Span.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, candidate)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Span.Start < kept[j].Span.Start
	})
	return kept
}
