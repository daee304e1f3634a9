package textproc

import (
	"regexp"
	"strings"
)

var (
	// 先頭の箇条書きグリフ（•, ‣, ◦, ⁃, ∙, -, *）を正規化対象とする
	bulletRe = regexp.MustCompile(`^[\x{2022}\x{2023}\x{25E6}\x{2043}\x{2219}\-\*]\s+`)

	// 水平方向の空白の連続
	spaceRe = regexp.MustCompile(`[ \t]+`)

	// ページ番号のみの行（"12" や "Page 3 of 4"）
	pageNumberRe = regexp.MustCompile(`(?i)^(?:\d+|page\s+\d+(?:\s+of\s+\d+)?)$`)

	// 3つ以上連続する改行
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// Normalize は抽出した生テキストを正規化された標準形に変換します
// 処理は冪等であり、正規化済みテキストに再適用しても結果は変わりません
//
// 適用順:
//  1. 改行コードをLFに統一
//  2. 行ごとにトリムし、水平空白の連続を単一スペースに圧縮
//  3. 箇条書きグリフを "- " に統一
//  4. ページ番号のみの行を除去
//  5. 3行以上の連続した空行を段落区切り（空行1つ）に圧縮
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	normalized := make([]string, 0, len(lines))
	for _, line := range lines {
		line = spaceRe.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		line = bulletRe.ReplaceAllString(line, "- ")

		if pageNumberRe.MatchString(line) {
			continue
		}
		normalized = append(normalized, line)
	}

	result := strings.Join(normalized, "\n")
	result = blankRunRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}
