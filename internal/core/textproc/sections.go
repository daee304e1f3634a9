package textproc

import (
	"regexp"
	"strings"
)

// SectionLabel はレジュメの論理セクションを表すラベルです
type SectionLabel string

const (
	SectionSummary        SectionLabel = "summary"
	SectionExperience     SectionLabel = "experience"
	SectionEducation      SectionLabel = "education"
	SectionSkills         SectionLabel = "skills"
	SectionProjects       SectionLabel = "projects"
	SectionCertifications SectionLabel = "certifications"
)

// headingPattern は見出し行とセクションラベルの対応を保持します
// 語間の空白量や末尾の句読点のゆらぎを許容します
type headingPattern struct {
	label SectionLabel
	re    *regexp.Regexp
}

var headingPatterns = []headingPattern{
	{SectionSummary, headingRe(`summary|professional\s+summary|objective|profile|about\s+me|career\s+objective`)},
	{SectionExperience, headingRe(`experience|work\s+experience|professional\s+experience|employment|employment\s+history|work\s+history|career\s+history`)},
	{SectionEducation, headingRe(`education|academic\s+background|educational\s+background|qualifications|academic\s+qualifications`)},
	{SectionSkills, headingRe(`skills|technical\s+skills|core\s+competencies|competencies|key\s+skills|skill\s+set|technologies|tech\s+stack`)},
	{SectionProjects, headingRe(`projects|personal\s+projects|key\s+projects|notable\s+projects|portfolio`)},
	{SectionCertifications, headingRe(`certifications?|certificates?|licenses?|accreditations?|credentials?`)},
}

func headingRe(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^\s*(?:` + alternatives + `)\s*[:.\-]?\s*$`)
}

// Segment は正規化済み（編集前）テキストを行走査でセクションに分割します
//
// 既知ラベルの見出し行が新しいアクティブセクションを開き、次の見出しまたは
// 文末まで後続行を蓄積します。最初の見出しより前のテキストは暗黙の
// "summary" セクションに割り当てられ、未知の見出しは新しいセクションを
// 開きません。空のセクションは結果に含まれません
func Segment(text string) map[SectionLabel]string {
	sections := make(map[SectionLabel][]string)
	active := SectionSummary

	for _, line := range strings.Split(text, "\n") {
		if label, ok := matchHeading(line); ok {
			active = label
			if _, exists := sections[active]; !exists {
				sections[active] = []string{}
			}
			continue
		}
		sections[active] = append(sections[active], line)
	}

	result := make(map[SectionLabel]string, len(sections))
	for label, lines := range sections {
		content := strings.TrimSpace(strings.Join(lines, "\n"))
		if content != "" {
			result[label] = content
		}
	}
	return result
}

func matchHeading(line string) (SectionLabel, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", false
	}
	for _, p := range headingPatterns {
		if p.re.MatchString(trimmed) {
			return p.label, true
		}
	}
	return "", false
}

// SummarizeSections は各セクションの先頭部分を要約として切り出します
// maxLen 文字（rune単位）を超える場合は "..." を付加します
func SummarizeSections(sections map[SectionLabel]string, maxLen int) map[string]string {
	summary := make(map[string]string, len(sections))
	for label, content := range sections {
		runes := []rune(content)
		if len(runes) > maxLen {
			summary[string(label)] = string(runes[:maxLen]) + "..."
		} else {
			summary[string(label)] = content
		}
	}
	return summary
}
