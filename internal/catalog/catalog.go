package catalog

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModeInterior  Mode = "interior"
	ModeExterior  Mode = "exterior"
	ModeLandscape Mode = "landscape"
)

type InputType string

const (
	InputPhoto  InputType = "photo"
	InputSketch InputType = "sketch"
)

type Style struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PreviewURL  string `json:"previewUrl"`
	Prompt      string `json:"prompt"`
}

func Modes() []Mode {
	return []Mode{ModeInterior, ModeExterior, ModeLandscape}
}

func ParseMode(value string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := styles[m]; !ok {
		return "", fmt.Errorf("unknown design mode %q", value)
	}
	return m, nil
}

func ParseInputType(value string) (InputType, error) {
	switch t := InputType(strings.ToLower(strings.TrimSpace(value))); t {
	case InputPhoto, InputSketch:
		return t, nil
	default:
		return "", fmt.Errorf("unknown input type %q", value)
	}
}

// Label is the mode name shown when switching modes.
func (m Mode) Label() string {
	switch m {
	case ModeExterior:
		return "建筑方案"
	case ModeLandscape:
		return "景观园林"
	default:
		return "室内设计"
	}
}

// Subject names the thing being redesigned in synthesized instructions.
func (m Mode) Subject() string {
	switch m {
	case ModeExterior:
		return "建筑"
	case ModeLandscape:
		return "园林"
	default:
		return "空间"
	}
}

func (t InputType) Label() string {
	if t == InputSketch {
		return "草图"
	}
	return "实景图"
}

// Styles returns the mode's styles in display order. Unknown modes yield nil.
func Styles(mode Mode) []Style {
	list, ok := styles[mode]
	if !ok {
		return nil
	}
	out := make([]Style, len(list))
	copy(out, list)
	return out
}

func Lookup(mode Mode, id string) (Style, bool) {
	for _, s := range styles[mode] {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

// Find searches every mode, in Modes order.
func Find(id string) (Style, Mode, bool) {
	for _, m := range Modes() {
		if s, ok := Lookup(m, id); ok {
			return s, m, true
		}
	}
	return Style{}, "", false
}
