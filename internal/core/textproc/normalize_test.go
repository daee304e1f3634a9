package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	input := "Senior   Engineer\t\tat  Acme"
	assert.Equal(t, "Senior Engineer at Acme", Normalize(input))
}

func TestNormalizeRemovesPageNumberLines(t *testing.T) {
	input := "Experience\n12\nPage 3 of 4\nBuilt services"
	assert.Equal(t, "Experience\nBuilt services", Normalize(input))
}

func TestNormalizeUnifiesBulletGlyphs(t *testing.T) {
	input := "• Led a team\n* Shipped features\n- Wrote docs\n‣ Reviewed code"
	expected := "- Led a team\n- Shipped features\n- Wrote docs\n- Reviewed code"
	assert.Equal(t, expected, Normalize(input))
}

func TestNormalizeKeepsParagraphBreaks(t *testing.T) {
	input := "First paragraph\n\n\n\n\nSecond paragraph"
	assert.Equal(t, "First paragraph\n\nSecond paragraph", Normalize(input))
}

func TestNormalizeNormalizesLineEndings(t *testing.T) {
	input := "line one\r\nline two\rline three"
	assert.Equal(t, "line one\nline two\nline three", Normalize(input))
}

func TestNormalizeEmptyInput(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   \n\t\n  "))
}

// 冪等性: normalize(normalize(T)) == normalize(T)
func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"•  bullet  one\n\n\n\nPage 1 of 2\n42\n* bullet two\r\n  padded  ",
		"John Doe\nEXPERIENCE\n- Built\t APIs\n\n\nEducation:\nBS  CS",
	}
	for _, input := range inputs {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once), "input=%q", input)
	}
}
