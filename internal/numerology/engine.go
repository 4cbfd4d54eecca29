// Package numerology implements the deterministic calculation engine.
// All calculations are pure functions over pre-validated date components
// and names; the injected catalogue supplies interpretations and formula
// records but never affects the computed values.
package numerology

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deidexdd-hash/numBase/internal/catalogue"
)

// Master numbers are exempt from digit reduction.
const (
	master1 = 11
	master2 = 22
	master3 = 33
)

// IsMaster reports whether n is one of the master numbers 11, 22, 33.
func IsMaster(n int) bool {
	return n == master1 || n == master2 || n == master3
}

// Reduce repeatedly sums the decimal digits of n until the result is a
// single digit or a master number. The master check runs before the
// termination check, so 29 reduces to 11 and stays there.
func Reduce(n int) int {
	for n > 9 && !IsMaster(n) {
		n = digitSum(n)
	}
	return n
}

func digitSum(n int) int {
	s := 0
	for n > 0 {
		s += n % 10
		n /= 10
	}
	return s
}

// InvalidInputError reports a date component out of range. It is produced
// by ValidateDate at the boundary; the engine itself assumes valid input.
type InvalidInputError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

// ValidateDate checks birth date components against the supported ranges.
// The year range guarantees an 8-digit DDMMYYYY string for the chakra
// calculation.
func ValidateDate(day, month, year int) error {
	if day < 1 || day > 31 {
		return &InvalidInputError{Field: "day", Value: day, Min: 1, Max: 31}
	}
	if month < 1 || month > 12 {
		return &InvalidInputError{Field: "month", Value: month, Min: 1, Max: 12}
	}
	if year < 1900 || year > 2100 {
		return &InvalidInputError{Field: "year", Value: year, Min: 1900, Max: 2100}
	}
	return nil
}

// Calculation is a single computed indicator with its reduction trace,
// interpretation, and originating formula. A catalogue without the
// matching records degrades to a default meaning and a nil formula.
type Calculation struct {
	Value       int                `json:"value"`
	Raw         int                `json:"raw,omitempty"`
	Steps       []string           `json:"steps,omitempty"`
	FormulaText string             `json:"formula_text"`
	Meaning     catalogue.Meaning  `json:"meaning"`
	Formula     *catalogue.Formula `json:"formula"`
}

// FinancialChannel carries all four components of the financial channel:
// A = day, B = month, C = digit sum of the year, D = reduce(A+B+C).
type FinancialChannel struct {
	Value       int                `json:"value"`
	A           int                `json:"A"`
	B           int                `json:"B"`
	C           int                `json:"C"`
	Total       int                `json:"total"`
	FormulaText string             `json:"formula_text"`
	Meaning     catalogue.Meaning  `json:"meaning"`
	Formula     *catalogue.Formula `json:"formula"`
}

// ChakraValue is one of the seven sliding pair sums over the date digits.
type ChakraValue struct {
	Chakra     int    `json:"chakra"`
	Value      int    `json:"value"`
	Name       string `json:"name"`
	DigitsUsed string `json:"digits_used"`
}

// ChakraBalance holds the seven chakra values derived from DDMMYYYY.
type ChakraBalance struct {
	DateString string             `json:"date_str"`
	Values     []ChakraValue      `json:"chakras"`
	Formula    *catalogue.Formula `json:"formula"`
}

// Destiny is the name-derived destiny number with its letter trace.
type Destiny struct {
	Value        int                `json:"value"`
	FullName     string             `json:"fullname"`
	LetterValues []int              `json:"letter_values"`
	Total        int                `json:"total"`
	FormulaText  string             `json:"formula_text"`
	Meaning      catalogue.Meaning  `json:"meaning"`
	Formula      *catalogue.Formula `json:"formula"`
}

// Input echoes the request that produced a Bundle.
type Input struct {
	Day   int    `json:"day"`
	Month int    `json:"month"`
	Year  int    `json:"year"`
	Name  string `json:"name,omitempty"`
}

// Bundle is the full calculation result. Destiny is an explicit null when
// no name was supplied.
type Bundle struct {
	Input            Input            `json:"input"`
	BirthNumber      Calculation      `json:"birth_number"`
	LifePath         Calculation      `json:"life_path"`
	FinancialChannel FinancialChannel `json:"financial_channel"`
	Chakras          ChakraBalance    `json:"chakras"`
	PersonalYear     Calculation      `json:"personal_year"`
	Destiny          *Destiny         `json:"destiny"`
}

// chakraNames indexes the seven chakras in ascending order.
var chakraNames = [8]string{
	1: "Muladhara (root)",
	2: "Svadhisthana (sacral)",
	3: "Manipura (solar plexus)",
	4: "Anahata (heart)",
	5: "Vishuddha (throat)",
	6: "Ajna (third eye)",
	7: "Sahasrara (crown)",
}

// Engine computes numerology indicators against an injected catalogue.
// The clock is injectable so personal-year results are testable.
type Engine struct {
	cat *catalogue.Catalogue
	now func() time.Time
}

// NewEngine creates an engine over the given catalogue. now may be nil,
// in which case time.Now is used.
func NewEngine(cat *catalogue.Catalogue, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{cat: cat, now: now}
}

// BirthNumber reduces the day of birth, recording each reduction step.
func (e *Engine) BirthNumber(day int) Calculation {
	n := day
	var steps []string
	for n > 9 && !IsMaster(n) {
		digits := splitDigits(n)
		s := 0
		parts := make([]string, len(digits))
		for i, d := range digits {
			s += d
			parts[i] = strconv.Itoa(d)
		}
		steps = append(steps, fmt.Sprintf("%s = %d", strings.Join(parts, "+"), s))
		n = s
	}

	text := fmt.Sprintf("%d → %d", day, n)
	if len(steps) > 0 {
		text = fmt.Sprintf("%d → %s → %d", day, strings.Join(steps, " → "), n)
	}

	return Calculation{
		Value:       n,
		Raw:         day,
		Steps:       steps,
		FormulaText: text,
		Meaning:     e.cat.MeaningFor(n),
		Formula:     e.cat.Formula("birth_number"),
	}
}

// LifePath reduces day + month + year.
func (e *Engine) LifePath(day, month, year int) Calculation {
	total := day + month + year
	n := Reduce(total)
	return Calculation{
		Value:       n,
		Raw:         total,
		FormulaText: fmt.Sprintf("%d + %d + %d = %d → %d", day, month, year, total, n),
		Meaning:     e.cat.MeaningFor(n),
		Formula:     e.cat.Formula("life_path"),
	}
}

// DestinyNumber maps every letter of the case-folded name through the
// merged letter table, sums, and reduces. Characters without a letter
// value contribute nothing, so the result is invariant under case changes
// and surrounding whitespace.
func (e *Engine) DestinyNumber(fullName string) Destiny {
	name := strings.TrimSpace(fullName)
	var values []int
	total := 0
	for _, r := range strings.ToLower(name) {
		if v := LetterValue(r); v > 0 {
			values = append(values, v)
			total += v
		}
	}
	n := Reduce(total)
	return Destiny{
		Value:        n,
		FullName:     name,
		LetterValues: values,
		Total:        total,
		FormulaText:  fmt.Sprintf("letter sum %d → %d", total, n),
		Meaning:      e.cat.MeaningFor(n),
		Formula:      e.cat.Formula("destiny_number"),
	}
}

// FinancialChannel computes A = day, B = month, C = digit sum of the
// year, D = reduce(A + B + C), returning all four components.
func (e *Engine) FinancialChannel(day, month, year int) FinancialChannel {
	a, b := day, month
	c := digitSum(year)
	total := a + b + c
	d := Reduce(total)
	return FinancialChannel{
		Value:       d,
		A:           a,
		B:           b,
		C:           c,
		Total:       total,
		FormulaText: fmt.Sprintf("A(%d) + B(%d) + C(%d) = %d → D=%d", a, b, c, total, d),
		Meaning:     e.cat.MeaningFor(d),
		Formula:     e.cat.Formula("financial_channel"),
	}
}

// ChakraBalance formats the date as DDMMYYYY and computes the seven
// sliding pair sums over its digits. The year is checked before
// formatting: zero padding would otherwise turn a 2-digit year into a
// plausible 8-digit string and silently compute over garbage.
func (e *Engine) ChakraBalance(day, month, year int) (ChakraBalance, error) {
	if year < 1000 || year > 9999 {
		return ChakraBalance{}, fmt.Errorf("year %d must have 4 digits", year)
	}
	dateStr := fmt.Sprintf("%02d%02d%04d", day, month, year)
	if len(dateStr) != 8 {
		return ChakraBalance{}, fmt.Errorf("date %d.%d.%d does not format to 8 digits", day, month, year)
	}

	digits := make([]int, 8)
	for i, r := range dateStr {
		digits[i] = int(r - '0')
	}

	values := make([]ChakraValue, 0, 7)
	for i := 1; i <= 7; i++ {
		values = append(values, ChakraValue{
			Chakra:     i,
			Value:      digits[i-1] + digits[i],
			Name:       chakraNames[i],
			DigitsUsed: fmt.Sprintf("%d+%d", digits[i-1], digits[i]),
		})
	}

	return ChakraBalance{
		DateString: dateStr,
		Values:     values,
		Formula:    e.cat.Formula("chakra_balance"),
	}, nil
}

// PersonalYear reduces day + month + the current year from the engine clock.
func (e *Engine) PersonalYear(day, month int) Calculation {
	year := e.now().Year()
	n := Reduce(day + month + year)
	return Calculation{
		Value:       n,
		Raw:         day + month + year,
		FormulaText: fmt.Sprintf("%d + %d + %d → %d", day, month, year, n),
		Meaning:     e.cat.MeaningFor(n),
		Formula:     e.cat.Formula("personal_year"),
	}
}

// CalculateAll computes the full indicator bundle. The date must already
// be validated with ValidateDate. Destiny is nil (serialized as an
// explicit null) when the name is empty or blank.
func (e *Engine) CalculateAll(day, month, year int, name string) (Bundle, error) {
	chakras, err := e.ChakraBalance(day, month, year)
	if err != nil {
		return Bundle{}, err
	}

	b := Bundle{
		Input:            Input{Day: day, Month: month, Year: year, Name: strings.TrimSpace(name)},
		BirthNumber:      e.BirthNumber(day),
		LifePath:         e.LifePath(day, month, year),
		FinancialChannel: e.FinancialChannel(day, month, year),
		Chakras:          chakras,
		PersonalYear:     e.PersonalYear(day, month),
	}
	if strings.TrimSpace(name) != "" {
		d := e.DestinyNumber(name)
		b.Destiny = &d
	}
	return b, nil
}

func splitDigits(n int) []int {
	s := strconv.Itoa(n)
	out := make([]int, len(s))
	for i, r := range s {
		out[i] = int(r - '0')
	}
	return out
}
