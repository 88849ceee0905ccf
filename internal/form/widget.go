package form

import "fmt"

// Rect is a widget rectangle in PDF user space. X and Y are the lower-left
// corner, so a larger Y is higher on the page.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f x %.1f)", r.X, r.Y, r.Width, r.Height)
}

// Widget is a fillable text control on a form page.
type Widget interface {
	// Name is the widget's field name. Binding never uses it.
	Name() string
	// Page is the 1-based page number.
	Page() int
	Rect() Rect
	SetValue(value string)
	// ClearAppearance drops the cached rendering so viewers redraw the value.
	ClearAppearance()
}

// WidgetInfo is a read-only description of a widget in binding order.
type WidgetInfo struct {
	Index int    `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
	Page  int    `json:"page" yaml:"page"`
	Rect  Rect   `json:"rect" yaml:"rect"`
}

// Describe returns the widgets in the order Bind assigns values to them.
func Describe(widgets []Widget) []WidgetInfo {
	ordered := ReadingOrder(widgets)
	out := make([]WidgetInfo, len(ordered))
	for i, w := range ordered {
		out[i] = WidgetInfo{
			Index: i,
			Name:  w.Name(),
			Page:  w.Page(),
			Rect:  w.Rect(),
		}
	}
	return out
}
