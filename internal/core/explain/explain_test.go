package explain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jinford/resume-match/internal/core/taxonomy"
	"github.com/jinford/resume-match/internal/core/textproc"
)

func TestComputeGapTaxonomyOrder(t *testing.T) {
	tax := taxonomy.MustNew([]taxonomy.Skill{
		{Canonical: "Python"},
		{Canonical: "Docker"},
		{Canonical: "AWS"},
		{Canonical: "Kubernetes"},
	})

	// 入力順に関わらず出力はタクソノミー順になる
	gap := ComputeGap(tax, []string{"Docker", "Python"}, []string{"AWS", "Docker", "Kubernetes", "Python"})
	assert.Equal(t, []string{"Python", "Docker"}, gap.Matching)
	assert.Equal(t, []string{"AWS", "Kubernetes"}, gap.Missing)
}

func TestComputeGapEmptyInputs(t *testing.T) {
	tax := taxonomy.Default()

	gap := ComputeGap(tax, nil, nil)
	assert.Empty(t, gap.Matching)
	assert.Empty(t, gap.Missing)

	gap = ComputeGap(tax, []string{"Python"}, nil)
	assert.Empty(t, gap.Matching)
	assert.Empty(t, gap.Missing)
}

func TestBuildExplanationScoreBands(t *testing.T) {
	gap := Gap{Matching: []string{"Python"}}
	sections := map[textproc.SectionLabel]string{}

	assert.Contains(t, BuildExplanation(gap, 80.0, sections), "Strong match (80.0%)")
	assert.Contains(t, BuildExplanation(gap, 75.0, sections), "Strong match (75.0%)")
	assert.Contains(t, BuildExplanation(gap, 60.5, sections), "Moderate match (60.5%)")
	assert.Contains(t, BuildExplanation(gap, 49.99, sections), "Weak match (50.0%)")
	assert.Contains(t, BuildExplanation(gap, 10.0, sections), "Weak match (10.0%)")
}

func TestBuildExplanationSkillEvidence(t *testing.T) {
	gap := Gap{
		Matching: []string{"Python", "Docker"},
		Missing:  []string{"AWS"},
	}
	got := BuildExplanation(gap, 60.0, nil)

	assert.Contains(t, got, "Matching skills found in resume: Python, Docker.")
	assert.Contains(t, got, "Key skills from JD not found in resume: AWS.")
}

func TestBuildExplanationTruncatesLongLists(t *testing.T) {
	gap := Gap{
		Matching: []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"},
		Missing:  []string{"P", "Q", "R", "S", "T", "U", "V"},
	}
	got := BuildExplanation(gap, 60.0, nil)

	assert.Contains(t, got, "A, B, C, D, E, F, G, H (and 2 more)")
	assert.Contains(t, got, "P, Q, R, S, T (and 2 more)")
	assert.NotContains(t, got, "I, J")
}

func TestBuildExplanationNoMatchingSkills(t *testing.T) {
	got := BuildExplanation(Gap{}, 30.0, nil)
	assert.Contains(t, got, "No matching skills were identified")
}

func TestBuildExplanationSectionEvidence(t *testing.T) {
	sections := map[textproc.SectionLabel]string{
		textproc.SectionExperience: "worked at places",
		textproc.SectionSkills:     "Python",
		textproc.SectionEducation:  "BSc",
	}
	got := BuildExplanation(Gap{Matching: []string{"Python"}}, 80.0, sections)

	assert.Contains(t, got, "Relevant sections detected: experience, skills.")
	assert.NotContains(t, got, "education")
}

func TestBuildSuggestionsMissingSkills(t *testing.T) {
	gap := Gap{Missing: []string{"AWS", "Terraform"}}
	suggestions := BuildSuggestions(gap, 80.0, map[textproc.SectionLabel]string{
		textproc.SectionSummary:  "profile",
		textproc.SectionProjects: "stuff",
	})

	assert.Contains(t, suggestions[0], "Add or highlight these skills")
	assert.Contains(t, suggestions[0], "AWS, Terraform")
}

func TestBuildSuggestionsCertificationRule(t *testing.T) {
	gap := Gap{Missing: []string{"AWS"}}
	sections := map[textproc.SectionLabel]string{
		textproc.SectionSummary:  "profile",
		textproc.SectionProjects: "stuff",
	}

	suggestions := BuildSuggestions(gap, 80.0, sections)
	assert.True(t, containsSubstring(suggestions, "obtaining relevant certifications"))

	// certifications セクションが既にあれば提案しない
	sections[textproc.SectionCertifications] = "AWS SAA"
	suggestions = BuildSuggestions(gap, 80.0, sections)
	assert.False(t, containsSubstring(suggestions, "obtaining relevant certifications"))
}

func TestBuildSuggestionsLowScoreAdvice(t *testing.T) {
	suggestions := BuildSuggestions(Gap{}, 40.0, map[textproc.SectionLabel]string{
		textproc.SectionSummary: "profile",
	})

	assert.True(t, containsSubstring(suggestions, "overall semantic similarity is low"))
	assert.True(t, containsSubstring(suggestions, "Adding a Projects section"))
}

func TestBuildSuggestionsStrongMatchFallback(t *testing.T) {
	sections := map[textproc.SectionLabel]string{
		textproc.SectionSummary:  "profile",
		textproc.SectionProjects: "stuff",
	}
	suggestions := BuildSuggestions(Gap{Matching: []string{"Python"}}, 90.0, sections)

	assert.Len(t, suggestions, 1)
	assert.Contains(t, suggestions[0], "strong match")
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
