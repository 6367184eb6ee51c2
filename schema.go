package filegate

import (
	"errors"
	"fmt"
)

// Column is one column of a metadata table as a schema check sees it.
// Type is the lower-cased type name the database reports.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// CheckColumns compares the columns a database reports for table against
// want. It returns nil when every wanted column is present with the same type
// and nullability; extra columns are ignored.
func CheckColumns(table string, want []Column, got map[string]Column) error {
	var errs []error

	for _, c := range want {
		have, ok := got[c.Name]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("column %s is missing", c.Name))
		case have.Type != c.Type:
			errs = append(errs, fmt.Errorf("column %s has type %s, want %s", c.Name, have.Type, c.Type))
		case have.Nullable != c.Nullable:
			errs = append(errs, fmt.Errorf("column %s has nullable=%t, want %t", c.Name, have.Nullable, c.Nullable))
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("table %s does not match: %w", table, errors.Join(errs...))
}
