package api

import (
	"fmt"
	"strings"

	"github.com/deidexdd-hash/numBase/internal/numerology"
)

// RenderReport formats a calculation bundle as a human-readable text
// report, one section per indicator.
func RenderReport(b numerology.Bundle) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Numerology report for %02d.%02d.%04d\n", b.Input.Day, b.Input.Month, b.Input.Year)
	if b.Input.Name != "" {
		fmt.Fprintf(&sb, "Name: %s\n", b.Input.Name)
	}
	sb.WriteString("\n")

	writeCalc(&sb, "Birth number", b.BirthNumber)
	writeCalc(&sb, "Life path", b.LifePath)

	fmt.Fprintf(&sb, "Financial channel: %d\n", b.FinancialChannel.Value)
	fmt.Fprintf(&sb, "  %s\n", b.FinancialChannel.FormulaText)
	if b.FinancialChannel.Meaning.Title != "" {
		fmt.Fprintf(&sb, "  %s\n", b.FinancialChannel.Meaning.Title)
	}
	sb.WriteString("\n")

	sb.WriteString("Chakra balance:\n")
	for _, cv := range b.Chakras.Values {
		fmt.Fprintf(&sb, "  %d. %s: %d (%s)\n", cv.Chakra, cv.Name, cv.Value, cv.DigitsUsed)
	}
	sb.WriteString("\n")

	writeCalc(&sb, "Personal year", b.PersonalYear)

	if b.Destiny != nil {
		fmt.Fprintf(&sb, "Destiny number: %d\n", b.Destiny.Value)
		fmt.Fprintf(&sb, "  %s\n", b.Destiny.FormulaText)
		if b.Destiny.Meaning.Title != "" {
			fmt.Fprintf(&sb, "  %s\n", b.Destiny.Meaning.Title)
		}
	}

	return sb.String()
}

func writeCalc(sb *strings.Builder, label string, c numerology.Calculation) {
	fmt.Fprintf(sb, "%s: %d\n", label, c.Value)
	if c.FormulaText != "" {
		fmt.Fprintf(sb, "  %s\n", c.FormulaText)
	}
	if c.Meaning.Title != "" {
		fmt.Fprintf(sb, "  %s\n", c.Meaning.Title)
	}
	sb.WriteString("\n")
}
