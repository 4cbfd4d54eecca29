// Package catalogue loads the static numerology catalogue: formulas,
// practices, number meanings, and algorithms. The catalogue is versioned
// JSON reference data, read once at startup and immutable afterwards.
package catalogue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Formula describes a single named calculation from the catalogue.
// Formulas are identified by a stable id that never changes across
// catalogue versions.
type Formula struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Expression  string  `json:"formula"`
	Inputs      []Input `json:"inputs,omitempty"`
	Output      string  `json:"output,omitempty"`
	Example     string  `json:"example,omitempty"`
}

// Input describes one ordered input of a formula.
type Input struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Constraints string `json:"constraints,omitempty"`
}

// NumberMeaning is the interpretation record for a reduced value
// (1-9 or a master number).
type NumberMeaning struct {
	Value       int      `json:"value"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
	Positive    []string `json:"positive,omitempty"`
	Negative    []string `json:"negative,omitempty"`
	Professions []string `json:"professions,omitempty"`
	Chakra      string   `json:"chakra,omitempty"`
	Color       string   `json:"color,omitempty"`
}

// Meaning is the result of a meaning lookup. Found reports whether the
// catalogue carried a record for the number; when it did not, the embedded
// record is a synthesized default so callers never deal with absent keys.
type Meaning struct {
	Found bool `json:"found"`
	NumberMeaning
}

// Practice is a guided exercise from the catalogue.
type Practice struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description"`
	Steps       []string `json:"steps,omitempty"`
	Duration    string   `json:"duration,omitempty"`
}

// Algorithm is a multi-step diagnostic procedure from the catalogue.
type Algorithm struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Steps       []string `json:"steps,omitempty"`
}

// Index carries catalogue version metadata.
type Index struct {
	Version string `json:"version"`
	Created string `json:"created"`
}

// defaultColor is used when a meaning record carries no color.
const defaultColor = "#c8922a"

// Catalogue holds the full in-memory catalogue. It is safe for concurrent
// reads; nothing mutates it after Load returns.
type Catalogue struct {
	formulas   []Formula
	practices  []Practice
	algorithms []Algorithm
	meanings   map[int]NumberMeaning
	index      Index
}

// Load reads the catalogue JSON files from dir. A missing file yields an
// empty section rather than an error; a present but malformed file fails
// the load.
func Load(dir string) (*Catalogue, error) {
	c := &Catalogue{meanings: make(map[int]NumberMeaning)}

	if err := loadJSON(filepath.Join(dir, "formulas.json"), &c.formulas); err != nil {
		return nil, fmt.Errorf("loading formulas: %w", err)
	}
	if err := loadJSON(filepath.Join(dir, "practices.json"), &c.practices); err != nil {
		return nil, fmt.Errorf("loading practices: %w", err)
	}
	if err := loadJSON(filepath.Join(dir, "algorithms.json"), &c.algorithms); err != nil {
		return nil, fmt.Errorf("loading algorithms: %w", err)
	}
	if err := loadJSON(filepath.Join(dir, "master_index.json"), &c.index); err != nil {
		return nil, fmt.Errorf("loading master index: %w", err)
	}

	meanings, err := loadMeanings(filepath.Join(dir, "number_meanings.json"))
	if err != nil {
		return nil, fmt.Errorf("loading number meanings: %w", err)
	}
	c.meanings = meanings

	return c, nil
}

// New builds a catalogue directly from in-memory records. Used by tests
// and by callers that embed their own fixtures.
func New(formulas []Formula, meanings []NumberMeaning) *Catalogue {
	c := &Catalogue{formulas: formulas, meanings: make(map[int]NumberMeaning)}
	for _, m := range meanings {
		c.meanings[m.Value] = m
	}
	return c
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// loadMeanings accepts both catalogue shapes: a JSON object keyed by the
// number as a string, and a JSON array of records carrying "value".
func loadMeanings(path string) (map[int]NumberMeaning, error) {
	out := make(map[int]NumberMeaning)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	var list []NumberMeaning
	if err := json.Unmarshal(data, &list); err == nil {
		for _, m := range list {
			out[m.Value] = m
		}
		return out, nil
	}

	var byKey map[string]NumberMeaning
	if err := json.Unmarshal(data, &byKey); err != nil {
		return nil, err
	}
	for k, m := range byKey {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("meaning key %q is not a number", k)
		}
		m.Value = n
		out[n] = m
	}
	return out, nil
}

// Formula returns the formula with the given id, or nil if the catalogue
// does not carry it.
func (c *Catalogue) Formula(id string) *Formula {
	for i := range c.formulas {
		if c.formulas[i].ID == id {
			return &c.formulas[i]
		}
	}
	return nil
}

// Formulas returns all formulas in catalogue order.
func (c *Catalogue) Formulas() []Formula {
	return c.formulas
}

// FindFormulas returns formulas whose name or description contains the
// query, case-insensitively, in catalogue order.
func (c *Catalogue) FindFormulas(query string) []Formula {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Formula
	for _, f := range c.formulas {
		if strings.Contains(strings.ToLower(f.Name), q) ||
			strings.Contains(strings.ToLower(f.Description), q) {
			out = append(out, f)
		}
	}
	return out
}

// MeaningFor resolves the interpretation for a reduced number. Absent
// records synthesize a default titled "Number n" so the caller never has
// to handle a missing case.
func (c *Catalogue) MeaningFor(n int) Meaning {
	if m, ok := c.meanings[n]; ok {
		if m.Color == "" {
			m.Color = defaultColor
		}
		return Meaning{Found: true, NumberMeaning: m}
	}
	return Meaning{
		NumberMeaning: NumberMeaning{
			Value: n,
			Title: fmt.Sprintf("Number %d", n),
			Color: defaultColor,
		},
	}
}

// Practices returns all practices in catalogue order.
func (c *Catalogue) Practices() []Practice {
	return c.practices
}

// Algorithms returns all algorithms in catalogue order.
func (c *Catalogue) Algorithms() []Algorithm {
	return c.algorithms
}

// Version returns the catalogue version string, empty when no master
// index was present.
func (c *Catalogue) Version() string {
	return c.index.Version
}

// Counts reports the size of each catalogue section.
func (c *Catalogue) Counts() (formulas, practices, meanings int) {
	return len(c.formulas), len(c.practices), len(c.meanings)
}
