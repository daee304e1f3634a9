package taxonomy

import (
	"fmt"
	"regexp"
	"strings"
)

// Skill はタクソノミー上の1スキルを表します
// Canonical がマッチ結果として報告される正準名で、Synonyms の
// いずれにヒットした場合も正準名が報告されます
type Skill struct {
	Canonical string   `json:"canonical"`
	Synonyms  []string `json:"synonyms,omitempty"`
}

// Taxonomy はコンパイル済みのスキルタクソノミーです
// グローバルなルックアップではなく、抽出器とスコアラーに明示的に
// 引き渡して使用します
type Taxonomy struct {
	skills   []Skill
	patterns []*regexp.Regexp
}

// New はスキルリストからタクソノミーをコンパイルします
// スキルの順序は抽出結果の順序として保存されます
func New(skills []Skill) (*Taxonomy, error) {
	t := &Taxonomy{
		skills:   skills,
		patterns: make([]*regexp.Regexp, 0, len(skills)),
	}
	for _, skill := range skills {
		if strings.TrimSpace(skill.Canonical) == "" {
			return nil, fmt.Errorf("taxonomy contains an empty canonical skill")
		}
		phrases := append([]string{skill.Canonical}, skill.Synonyms...)
		quoted := make([]string, 0, len(phrases))
		for _, phrase := range phrases {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(phrase)))
		}
		// 語境界: スキル語の前後に英数字・ハイフン・アンダースコアが
		// 続く場合はマッチしない（部分語マッチの禁止）
		expr := `(?:^|[^a-z0-9_-])(?:` + strings.Join(quoted, "|") + `)(?:$|[^a-z0-9_-])`
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile skill pattern for %q: %w", skill.Canonical, err)
		}
		t.patterns = append(t.patterns, re)
	}
	return t, nil
}

// MustNew は New と同様ですが、エラー時に panic します
// パッケージ内蔵のデフォルトタクソノミーの構築用
func MustNew(skills []Skill) *Taxonomy {
	t, err := New(skills)
	if err != nil {
		panic(err)
	}
	return t
}

// Extract はテキストから検出された正準スキルをタクソノミー順で返します
// マッチは大文字小文字を区別せず、語境界を尊重し、重複しません
func (t *Taxonomy) Extract(text string) []string {
	if text == "" {
		return nil
	}
	lowered := strings.ToLower(text)

	var found []string
	for i, skill := range t.skills {
		if t.patterns[i].MatchString(lowered) {
			found = append(found, skill.Canonical)
		}
	}
	return found
}

// Len はタクソノミーに含まれるスキル数を返します
func (t *Taxonomy) Len() int {
	return len(t.skills)
}

// Order は正準スキル名からタクソノミー上の位置への対応を返します
// ギャップ分析で集合をタクソノミー順に保つために使用します
func (t *Taxonomy) Order() map[string]int {
	order := make(map[string]int, len(t.skills))
	for i, skill := range t.skills {
		order[skill.Canonical] = i
	}
	return order
}
