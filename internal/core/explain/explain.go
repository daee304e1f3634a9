package explain

import (
	"fmt"
	"strings"

	"github.com/jinford/resume-match/internal/core/taxonomy"
	"github.com/jinford/resume-match/internal/core/textproc"
)

// Gap はレジュメと求人のスキル集合の差分です
// Matching は両方に現れる正規名、Missing は求人側にのみ現れる正規名で、
// いずれもタクソノミー順に並びます
type Gap struct {
	Matching []string
	Missing  []string
}

// ComputeGap はレジュメと求人それぞれの抽出済みスキルから差分を
// 計算します。入力の順序には依存せず、出力はタクソノミー順です
func ComputeGap(tax *taxonomy.Taxonomy, resumeSkills, jobSkills []string) Gap {
	resumeSet := make(map[string]struct{}, len(resumeSkills))
	for _, s := range resumeSkills {
		resumeSet[s] = struct{}{}
	}

	var gap Gap
	for _, s := range sortByTaxonomy(tax, jobSkills) {
		if _, ok := resumeSet[s]; ok {
			gap.Matching = append(gap.Matching, s)
		} else {
			gap.Missing = append(gap.Missing, s)
		}
	}
	return gap
}

func sortByTaxonomy(tax *taxonomy.Taxonomy, skills []string) []string {
	order := tax.Order()
	sorted := make([]string, len(skills))
	copy(sorted, skills)
	// 挿入ソートで十分な規模。タクソノミー外のスキルは末尾に回す
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && rank(order, sorted[j]) < rank(order, sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}

func rank(order map[string]int, skill string) int {
	if r, ok := order[skill]; ok {
		return r
	}
	return len(order)
}

const (
	maxMatchingShown = 8
	maxMissingShown  = 5
)

// BuildExplanation はスコアとスキル差分・検出セクションに基づく
// テンプレート説明文を組み立てます。LLMは使いません
func BuildExplanation(gap Gap, score float64, sections map[textproc.SectionLabel]string) string {
	var lines []string

	switch {
	case score >= 75:
		lines = append(lines, fmt.Sprintf("Strong match (%.1f%%): The resume aligns well with the job description.", score))
	case score >= 50:
		lines = append(lines, fmt.Sprintf("Moderate match (%.1f%%): The resume partially aligns with the job description.", score))
	default:
		lines = append(lines, fmt.Sprintf("Weak match (%.1f%%): The resume has limited alignment with the job description.", score))
	}

	if len(gap.Matching) > 0 {
		shown := gap.Matching
		suffix := "."
		if len(shown) > maxMatchingShown {
			suffix = fmt.Sprintf(" (and %d more)", len(shown)-maxMatchingShown)
			shown = shown[:maxMatchingShown]
		}
		lines = append(lines, fmt.Sprintf("Matching skills found in resume: %s%s", strings.Join(shown, ", "), suffix))
	} else {
		lines = append(lines, "No matching skills were identified between the resume and job description.")
	}

	if len(gap.Missing) > 0 {
		shown := gap.Missing
		suffix := "."
		if len(shown) > maxMissingShown {
			suffix = fmt.Sprintf(" (and %d more)", len(shown)-maxMissingShown)
			shown = shown[:maxMissingShown]
		}
		lines = append(lines, fmt.Sprintf("Key skills from JD not found in resume: %s%s", strings.Join(shown, ", "), suffix))
	}

	var relevant []string
	for _, label := range []textproc.SectionLabel{textproc.SectionExperience, textproc.SectionSkills, textproc.SectionProjects} {
		if _, ok := sections[label]; ok {
			relevant = append(relevant, string(label))
		}
	}
	if len(relevant) > 0 {
		lines = append(lines, fmt.Sprintf("Relevant sections detected: %s.", strings.Join(relevant, ", ")))
	}

	return strings.Join(lines, " ")
}

var certificationKeywords = []string{"aws", "azure", "gcp", "certified", "pmp", "scrum"}

// BuildSuggestions は不足スキルとセクション構成に基づく改善提案を
// 返します。提案は必ず1件以上になります
func BuildSuggestions(gap Gap, score float64, sections map[textproc.SectionLabel]string) []string {
	var suggestions []string

	if len(gap.Missing) > 0 {
		shown := gap.Missing
		if len(shown) > maxMissingShown {
			shown = shown[:maxMissingShown]
		}
		suggestions = append(suggestions, fmt.Sprintf(
			"Add or highlight these skills if you have experience with them: %s.", strings.Join(shown, ", ")))
	}

	if _, ok := sections[textproc.SectionSummary]; !ok && len(sections) > 0 {
		suggestions = append(suggestions,
			"Consider adding a professional summary section that highlights your key qualifications.")
	}

	if _, ok := sections[textproc.SectionProjects]; !ok && score < 70 {
		suggestions = append(suggestions,
			"Adding a Projects section with relevant work can improve your match score.")
	}

	if _, ok := sections[textproc.SectionCertifications]; !ok && mentionsCertification(gap.Missing) {
		suggestions = append(suggestions,
			"Consider obtaining relevant certifications mentioned in the job description.")
	}

	if score < 50 {
		suggestions = append(suggestions,
			"The overall semantic similarity is low. Review the job description carefully and "+
				"tailor your resume language to better reflect the role's requirements.")
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions,
			"Your resume is a strong match. Ensure your experience descriptions use action verbs "+
				"and quantify achievements where possible.")
	}

	return suggestions
}

func mentionsCertification(missing []string) bool {
	joined := strings.ToLower(strings.Join(missing, " "))
	for _, kw := range certificationKeywords {
		if strings.Contains(joined, kw) {
			return true
		}
	}
	return false
}
