// Package classify assigns category tags and a document type to
// extracted text using keyword scoring. The rule tables are ordered:
// ties between categories and overlapping type patterns resolve by
// table position, so output is deterministic for a given input.
package classify

import (
	"sort"
	"strings"
)

// maxCategories caps how many category tags a document receives.
const maxCategories = 3

// scoreThreshold is the minimum score a category needs to be kept.
const scoreThreshold = 2

// CategoryRule pairs a category tag with the keywords that vote for it.
type CategoryRule struct {
	Category string
	Keywords []string
}

// TypeRule maps filename substrings to a document type. The first rule
// whose any pattern matches wins.
type TypeRule struct {
	Type     string
	Patterns []string
}

// Classifier scores text against ordered rule tables.
type Classifier struct {
	categories []CategoryRule
	types      []TypeRule
}

// New returns a classifier over the given tables. Nil tables select the
// built-in defaults.
func New(categories []CategoryRule, types []TypeRule) *Classifier {
	if categories == nil {
		categories = DefaultCategoryRules()
	}
	if types == nil {
		types = DefaultTypeRules()
	}
	return &Classifier{categories: categories, types: types}
}

// Categories returns up to three category tags for the document, best
// score first. A keyword found in the text adds 2, in the filename 3;
// categories scoring 2 or less are dropped.
func (c *Classifier) Categories(text, filename string) []string {
	textLower := strings.ToLower(text)
	nameLower := strings.ToLower(filename)

	type scored struct {
		category string
		score    int
	}
	var detected []scored
	for _, rule := range c.categories {
		score := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(textLower, kw) {
				score += 2
			}
			if strings.Contains(nameLower, kw) {
				score += 3
			}
		}
		if score > scoreThreshold {
			detected = append(detected, scored{rule.Category, score})
		}
	}

	// Stable sort keeps table order for equal scores.
	sort.SliceStable(detected, func(i, j int) bool {
		return detected[i].score > detected[j].score
	})
	if len(detected) > maxCategories {
		detected = detected[:maxCategories]
	}

	out := make([]string, len(detected))
	for i, d := range detected {
		out[i] = d.category
	}
	return out
}

// DocType returns the document type for a filename, or "reference" when
// no pattern matches.
func (c *Classifier) DocType(filename string) string {
	name := strings.ToLower(filename)
	for _, rule := range c.types {
		for _, p := range rule.Patterns {
			if strings.Contains(name, p) {
				return rule.Type
			}
		}
	}
	return "reference"
}

// Classify runs both passes in one call.
func (c *Classifier) Classify(text, filename string) (categories []string, docType string) {
	return c.Categories(text, filename), c.DocType(filename)
}

// DefaultCategoryRules is the built-in category table. Keywords are
// substring fragments, matching declined Russian forms as well as full
// English words. Order matters for tie-breaking.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{"numerology", []string{"число", "цифра", "нумеролог", "рождения", "путь жизни", "судьба", "number", "numerolog", "life path", "destiny"}},
		{"calculations", []string{"расчет", "расчёт", "формула", "вычисл", "алгоритм", "точка", "formula", "calculat"}},
		{"practices", []string{"практика", "медитация", "молитва", "техника", "ритуал", "поклон", "practice", "meditat", "ritual"}},
		{"diagnostics", []string{"диагностика", "анализ", "карта", "генограмма", "прокляти", "diagnos", "genogram"}},
		{"ancestral", []string{"род", "родовой", "предки", "семья", "поколен", "родитель", "ancestr", "lineage"}},
		{"financial", []string{"деньги", "финанс", "бизнес", "инвестиции", "доход", "канал", "money", "financ", "business"}},
		{"health", []string{"здоровье", "болезнь", "травма", "исцеление", "психолог", "health", "healing"}},
		{"relationships", []string{"отношения", "брак", "партнер", "семья", "близнец", "relationship", "partner", "marriage"}},
		{"energy", []string{"чакр", "энерг", "канал", "поток", "вибрац", "chakra", "energ", "vibrat"}},
		{"psychology", []string{"психолог", "травма", "внутренний", "ребенок", "сценарий", "psycholog", "inner child"}},
	}
}

// DefaultTypeRules is the built-in filename-to-type table. First match wins.
func DefaultTypeRules() []TypeRule {
	return []TypeRule{
		{"calculator", []string{"расчет", "расчёт", "калькулятор", "calculat"}},
		{"practice", []string{"практика", "медитация", "молитва", "practice", "meditat"}},
		{"algorithm", []string{"алгоритм", "схема", "выбор", "структура", "algorithm"}},
		{"template", []string{"карта", "генограмма", "матрица", "template", "matrix"}},
		{"reference", []string{"сборник", "книга", "значения", "reference"}},
		{"guide", []string{"как", "руководство", "инструкция", "guide", "how"}},
	}
}
