package ingestion

import (
	"strings"

	"github.com/coursekb/virtual-ta/index"
)

// CategoryRule pairs a category with the keywords that select it. Rules are
// evaluated in order; the first rule with any keyword contained in the text
// wins.
type CategoryRule struct {
	Category index.Category
	Keywords []string
}

// DefaultCategoryRules preserves the tagging order the existing evaluation
// baselines were computed against: assignment before exam before technical
// before course logistics.
var DefaultCategoryRules = []CategoryRule{
	{index.CategoryAssignment, []string{
		"assignment", "homework", "ga1", "ga2", "ga3", "ga4", "ga5", "ga6", "ga7",
		"project", "project 1", "project 2",
	}},
	{index.CategoryExam, []string{"exam", "test", "final", "roe"}},
	{index.CategoryTechnical, []string{"code", "error", "python", "api", "debug"}},
	{index.CategoryCourse, []string{"course", "syllabus", "schedule", "deadline"}},
}

// Categorize labels a chunk from its text and title. Every chunk receives
// exactly one category; no keyword match falls through to general.
func Categorize(text, title string) index.Category {
	return CategorizeWith(DefaultCategoryRules, text, title)
}

func CategorizeWith(rules []CategoryRule, text, title string) index.Category {
	haystack := strings.ToLower(text + " " + title)

	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(haystack, keyword) {
				return rule.Category
			}
		}
	}

	return index.CategoryGeneral
}
