// Package compare models the before/after reveal slider shown in the detail overlay.
package compare

type Slider struct {
	Position float64 `json:"position"`
	Dragging bool    `json:"dragging"`
}

func NewSlider() Slider {
	return Slider{Position: 50}
}

// PositionAt maps a pointer x coordinate inside a box starting at left with the
// given width to a percentage in [0, 100]. A degenerate box keeps the current position.
func (s Slider) PositionAt(x, left, width float64) float64 {
	if width <= 0 {
		return s.Position
	}
	return clamp((x - left) / width * 100)
}

func (s Slider) Start(x, left, width float64) Slider {
	s.Dragging = true
	s.Position = s.PositionAt(x, left, width)
	return s
}

// Move is ignored unless a drag is active.
func (s Slider) Move(x, left, width float64) Slider {
	if !s.Dragging {
		return s
	}
	s.Position = s.PositionAt(x, left, width)
	return s
}

func (s Slider) End() Slider {
	s.Dragging = false
	return s
}

// Detach drops the drag when the slider leaves the screen.
func (s Slider) Detach() Slider {
	return s.End()
}

// ClipRight is the right inset percentage applied to the "before" layer.
func (s Slider) ClipRight() float64 {
	return 100 - clamp(s.Position)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
