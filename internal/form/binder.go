package form

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jackzampolin/fireform/internal/extract"
)

// ErrCountMismatch matches any *CountMismatchError.
var ErrCountMismatch = errors.New("value and widget counts differ")

// CountMismatchError is returned when the number of values differs from
// the number of fillable widgets.
type CountMismatchError struct {
	Values  int
	Widgets int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%d values for %d widgets", e.Values, e.Widgets)
}

func (e *CountMismatchError) Is(target error) bool {
	return target == ErrCountMismatch
}

// ReadingOrder returns a sorted copy of widgets: page ascending, then top to
// bottom (Y descending), then left to right (X ascending). Ties keep their
// input order.
func ReadingOrder(widgets []Widget) []Widget {
	sorted := make([]Widget, len(widgets))
	copy(sorted, widgets)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Page() != b.Page() {
			return a.Page() < b.Page()
		}
		ra, rb := a.Rect(), b.Rect()
		if ra.Y != rb.Y {
			return ra.Y > rb.Y
		}
		return ra.X < rb.X
	})
	return sorted
}

// Bind assigns values[i] to the i-th widget in reading order and clears the
// cached appearance of every widget it fills. Names are never consulted.
//
// The counts are checked first; on mismatch no widget is touched.
func Bind(values []extract.Value, widgets []Widget) error {
	if len(values) != len(widgets) {
		return &CountMismatchError{Values: len(values), Widgets: len(widgets)}
	}

	for i, w := range ReadingOrder(widgets) {
		w.SetValue(values[i].Text())
		w.ClearAppearance()
	}
	return nil
}

// BindRecord binds a record's values in field-request order.
func BindRecord(record *extract.Record, widgets []Widget) error {
	return Bind(record.Values(), widgets)
}
