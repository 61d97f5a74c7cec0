// Package taxonomy holds the fixed error categories assigned to wrong steps.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory reports an oracle reply naming no known category.
var ErrUnknownCategory = errors.New("unknown error category")

// Category is one entry of the error taxonomy.
type Category string

const (
	GraphicalAnalysis            Category = "Graphical Analysis Errors"
	PhysicalLawApplication       Category = "Physical Law Application Errors"
	PhysicalConditionAnalysis    Category = "Physical Condition Analysis Errors"
	PhysicalProcessUnderstanding Category = "Physical Process Understanding Errors"
	VariableRelationship         Category = "Variable Relationship Errors"
	CalculationProcess           Category = "Calculation Process Errors"
	BoundaryConditionAnalysis    Category = "Boundary Condition Analysis Errors"
)

// Entry pairs a category with the description shown to the oracle.
type Entry struct {
	Category    Category
	Description string
}

var entries = []Entry{
	{GraphicalAnalysis, "Errors in understanding, drawing, analyzing, or extracting data from graphics. For example, misreading coordinate axes, misjudging curve trends, or missing key data points."},
	{PhysicalLawApplication, "Confusing physical law concepts or using them in inappropriate scenarios. For example, misusing the law of conservation of momentum or the law of conservation of energy."},
	{PhysicalConditionAnalysis, "Misjudgment of system boundaries, internal and external forces, or components. For example, ignoring friction or misjudging the isolation of the system."},
	{PhysicalProcessUnderstanding, "Deviations in the understanding of the development of phenomena, state changes, or causal relationships. For example, incorrect analysis of the motion process of an object or the mechanism of energy conversion."},
	{VariableRelationship, "Misunderstanding of the dependency or functional relationship between physical quantities. For example, misunderstanding that acceleration is proportional to velocity."},
	{CalculationProcess, "Errors in mathematical operations, formula derivation, or substitution calculations. For example, algebraic operation errors or unit conversion errors."},
	{BoundaryConditionAnalysis, "Ignoring or incorrectly handling special cases, limiting conditions, or ranges of applicability. For example, not considering system behavior at extreme temperatures or pressures."},
}

// All returns the taxonomy in its canonical order.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Categories returns the category names in canonical order.
func Categories() []Category {
	out := make([]Category, len(entries))
	for i, entry := range entries {
		out[i] = entry.Category
	}
	return out
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, entry := range entries {
		if entry.Category == c {
			return true
		}
	}
	return false
}

// stem drops the trailing "Errors" so replies like "calculation process error" still match.
func (c Category) stem() string {
	return strings.ToLower(strings.TrimSuffix(string(c), " Errors"))
}

// Match picks the category whose name appears earliest in a free-text reply,
// ignoring case and the trailing "Errors".
func Match(reply string) (Category, error) {
	lower := strings.ToLower(reply)
	best := -1
	var found Category
	for _, entry := range entries {
		idx := strings.Index(lower, entry.Category.stem())
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best {
			best = idx
			found = entry.Category
		}
	}
	if best < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, strings.TrimSpace(reply))
	}
	return found, nil
}
