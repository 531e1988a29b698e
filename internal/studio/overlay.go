package studio

import (
	"strings"

	"lumidecor/internal/compare"
)

// OpenOverlay shows one entry of an image-gallery message in the detail view.
type OpenOverlay struct {
	MessageID string
	Index     int
}

type CloseOverlay struct{}

type SetTab struct{ Tab Tab }

// HoverProduct highlights a product marker; an empty ProductID clears it.
type HoverProduct struct{ ProductID string }

type BeginEdit struct{}

type CancelEdit struct{}

type SetEditText struct{ Text string }

type SliderStart struct{ X, Left, Width float64 }

type SliderMove struct{ X, Left, Width float64 }

type SliderEnd struct{}

// Edit asks for a local change to the image currently shown in the overlay.
type Edit struct{ Instruction string }

type EditSettled struct {
	MessageID string
	Index     int
	Image     string
	Err       error
}

// RequestProducts posts the open design's products to the log and closes the overlay.
type RequestProducts struct{}

func (OpenOverlay) action()     {}
func (CloseOverlay) action()    {}
func (SetTab) action()          {}
func (HoverProduct) action()    {}
func (BeginEdit) action()       {}
func (CancelEdit) action()      {}
func (SetEditText) action()     {}
func (SliderStart) action()     {}
func (SliderMove) action()      {}
func (SliderEnd) action()       {}
func (Edit) action()            {}
func (EditSettled) action()     {}
func (RequestProducts) action() {}

func (r Reducer) reduceOverlay(st State, act Action) (State, Effect, error) {
	switch a := act.(type) {
	case OpenOverlay:
		entry, err := galleryEntry(st, a.MessageID, a.Index)
		if err != nil {
			return st, nil, err
		}
		st.Overlay = &Overlay{
			MessageID: a.MessageID,
			Index:     a.Index,
			Result:    entry,
			Tab:       TabDesign,
			Slider:    compare.NewSlider(),
		}
		return st, nil, nil

	case CloseOverlay:
		st.Overlay = nil
		return st, nil, nil

	case EditSettled:
		return r.editSettled(st, a), nil, nil
	}

	if st.Overlay == nil {
		return st, nil, ErrNoOverlay
	}
	ov := *st.Overlay

	switch a := act.(type) {
	case SetTab:
		if a.Tab != TabDesign && a.Tab != TabCompare {
			return st, nil, ErrInvalidTab
		}
		ov.Tab = a.Tab
		if a.Tab == TabDesign {
			ov.Slider = ov.Slider.Detach()
		}

	case HoverProduct:
		if a.ProductID != "" && !hasProduct(ov.Result.Products, a.ProductID) {
			return st, nil, ErrUnknownProduct
		}
		ov.HoveredProductID = a.ProductID

	case BeginEdit:
		ov.Editing = true
		ov.HoveredProductID = ""

	case CancelEdit:
		ov.Editing = false
		ov.EditText = ""

	case SetEditText:
		ov.EditText = a.Text

	case SliderStart:
		ov.Slider = ov.Slider.Start(a.X, a.Left, a.Width)

	case SliderMove:
		ov.Slider = ov.Slider.Move(a.X, a.Left, a.Width)

	case SliderEnd:
		ov.Slider = ov.Slider.End()

	case Edit:
		return r.edit(st, ov, a)

	case RequestProducts:
		if len(ov.Result.Products) == 0 {
			return st, nil, ErrNoProducts
		}
		list := r.message(RoleAssistant, TypeProductList, productListText)
		list.Data = ProductList{Products: append([]Product(nil), ov.Result.Products...)}
		st.Messages = appendMessages(st.Messages, r.message(RoleUser, TypeText, requestProductText), list)
		st.Overlay = nil
		return st, nil, nil
	}

	st.Overlay = &ov
	return st, nil, nil
}

func (r Reducer) edit(st State, ov Overlay, a Edit) (State, Effect, error) {
	if st.Generating {
		return st, nil, ErrGenerating
	}
	instruction := strings.TrimSpace(a.Instruction)
	if instruction == "" {
		return st, nil, ErrEmptyInstruction
	}
	if ov.Result.Modified == "" {
		return st, nil, ErrNothingToEdit
	}

	ov.Editing = false
	ov.EditText = ""
	st.Overlay = &ov
	st.Generating = true
	st.Messages = appendMessages(st.Messages, r.message(RoleUser, TypeText, editRequestText(instruction)))

	return st, EditEffect{
		MessageID:   ov.MessageID,
		Index:       ov.Index,
		Image:       ov.Result.Modified,
		Instruction: instruction,
	}, nil
}

// editSettled swaps the edited image into the source gallery entry (same
// message id) and into the overlay if it still shows that entry.
func (r Reducer) editSettled(st State, a EditSettled) State {
	st.Generating = false
	if a.Err != nil || a.Image == "" {
		st.Messages = appendMessages(st.Messages, r.message(RoleAssistant, TypeText, editFailedText))
		return st
	}

	if msg, idx, ok := st.Message(a.MessageID); ok {
		if g, ok := msg.Gallery(); ok && a.Index >= 0 && a.Index < len(g.Entries) {
			entries := append([]DesignResult(nil), g.Entries...)
			entries[a.Index].Modified = a.Image
			entries[a.Index].NoImage = false
			msg.Data = Gallery{Style: g.Style, Entries: entries}

			msgs := append([]Message(nil), st.Messages...)
			msgs[idx] = msg
			st.Messages = msgs
		}
	}

	if st.Overlay != nil && st.Overlay.MessageID == a.MessageID && st.Overlay.Index == a.Index {
		ov := *st.Overlay
		ov.Result.Modified = a.Image
		ov.Result.NoImage = false
		st.Overlay = &ov
	}

	st.Messages = appendMessages(st.Messages, r.message(RoleAssistant, TypeText, editDoneText))
	return st
}

func hasProduct(products []Product, id string) bool {
	for _, p := range products {
		if p.ID == id {
			return true
		}
	}
	return false
}
