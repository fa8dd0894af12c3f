package suite

import (
	"slices"
	"strings"
)

// Category tags a test so runs can be narrowed with TEST_CATEGORIES and
// TEST_SKIP_CATEGORIES.
type Category string

const (
	Login      Category = "login"
	Register   Category = "register"
	UI         Category = "ui"
	Smoke      Category = "smoke"
	Functional Category = "functional"
	Negative   Category = "negative"
	EdgeCase   Category = "edge_case"
	Stub       Category = "stub"
)

// Filter decides which categorised tests run. Exclusion wins over inclusion;
// an empty include list admits everything.
type Filter struct {
	Include []Category
	Exclude []Category
}

// NewFilter builds a filter from comma-separated category names.
func NewFilter(include, exclude []string) Filter {
	return Filter{Include: toCategories(include), Exclude: toCategories(exclude)}
}

func toCategories(names []string) []Category {
	out := make([]Category, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			out = append(out, Category(n))
		}
	}
	return out
}

// Allows reports whether a test tagged with cats should run.
func (f Filter) Allows(cats []Category) bool {
	for _, c := range cats {
		if slices.Contains(f.Exclude, c) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, c := range cats {
		if slices.Contains(f.Include, c) {
			return true
		}
	}
	return false
}
