package draft

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"marketplace-service/internal/catalog"
)

var (
	strengthPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(mg|g|kg|mcg|ng|L|mL|cc|U|mEq|%)?$`)
	sizePattern     = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s(mg|g|kg|mcg|ng|ml|l|liter|fl oz|cc|mL|L|U|mEq|%)$`)
	ageRangePattern = regexp.MustCompile(`^(\d+)-(\d+)$`)
)

type quantity struct {
	amount float64
	unit   string
}

func parseQuantity(pattern *regexp.Regexp, value, example string) (quantity, error) {
	m := pattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return quantity{}, fmt.Errorf("invalid format %q, expected a number and a unit such as %s", value, example)
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil || amount <= 0 {
		return quantity{}, fmt.Errorf("value %q must be a positive number", value)
	}
	return quantity{amount: amount, unit: m[2]}, nil
}

func parseStrength(value string) (quantity, error) {
	return parseQuantity(strengthPattern, value, "'100 mg', '500 U' or '3 %'")
}

func parseSize(value string) (quantity, error) {
	return parseQuantity(sizePattern, value, "'100 ml', '2 g' or '8 fl oz'")
}

// checkUnitFamily rejects units that do not fit the physical state of the dosage form.
func checkUnitFamily(form catalog.DosageForm, q quantity) error {
	units := form.Units()
	if !units.AllowsUnit(q.unit) {
		allowed := catalog.MassUnits
		if units == catalog.UnitsLiquid {
			allowed = catalog.LiquidUnits
		}
		return fmt.Errorf("unit %q is not valid for %s dosage form %q, use one of %s",
			q.unit, units, form, strings.Join(allowed, ", "))
	}
	return nil
}

// checkQuantities validates a list of strengths or sizes sharing one unit.
func checkQuantities(values []string, parse func(string) (quantity, error), form catalog.DosageForm) error {
	var unit string
	for i, v := range values {
		q, err := parse(v)
		if err != nil {
			return err
		}
		if i == 0 {
			unit = q.unit
		} else if q.unit != unit {
			return fmt.Errorf("all entries must use the same unit, got %q and %q", unit, q.unit)
		}
		if err := checkUnitFamily(form, q); err != nil {
			return err
		}
	}
	return nil
}

// checkAge accepts an age bucket or an "X-Y" range with 0 <= X < Y <= 120.
func checkAge(value string) error {
	if catalog.IsAgeBucket(value) {
		return nil
	}
	m := ageRangePattern.FindStringSubmatch(value)
	if m == nil {
		return fmt.Errorf("age %q must be an age group or a range in the format 'X-Y' (e.g. '10-20')", value)
	}
	x, errX := strconv.Atoi(m[1])
	y, errY := strconv.Atoi(m[2])
	if errX != nil || errY != nil {
		return fmt.Errorf("age range %q is out of bounds", value)
	}
	if x >= y {
		return fmt.Errorf("first age must be less than second age in %q", value)
	}
	if x < 0 || y > catalog.MaxAge {
		return fmt.Errorf("ages must be between 0 and %d", catalog.MaxAge)
	}
	return nil
}

// packLabels renders pack sizes and rejects duplicates after formatting.
func packLabels(form catalog.DosageForm, sizes []int) ([]string, error) {
	seen := make(map[string]bool, len(sizes))
	out := make([]string, 0, len(sizes))
	for _, n := range sizes {
		if n < 1 {
			return nil, fmt.Errorf("pack size %d must be a positive integer", n)
		}
		label := form.PackLabel(n)
		if seen[label] {
			return nil, fmt.Errorf("pack sizes must be unique, %q repeats", label)
		}
		seen[label] = true
		out = append(out, label)
	}
	return out, nil
}
