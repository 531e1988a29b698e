package studio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lumidecor/internal/catalog"
	"lumidecor/internal/gemini"
	"lumidecor/internal/intake"
)

var (
	ErrGenerating        = errors.New("studio: a generation is already in flight")
	ErrEmptySubmission   = errors.New("studio: nothing to submit")
	ErrUnknownMessage    = errors.New("studio: unknown message")
	ErrNotStyleSelection = errors.New("studio: message is not a style selection")
	ErrNotGallery        = errors.New("studio: message is not an image gallery")
	ErrUnknownStyle      = errors.New("studio: unknown style")
	ErrIndexOutOfRange   = errors.New("studio: gallery index out of range")
	ErrNoOverlay         = errors.New("studio: no design is open")
	ErrUnknownProduct    = errors.New("studio: unknown product")
	ErrInvalidTab        = errors.New("studio: invalid tab")
	ErrEmptyInstruction  = errors.New("studio: edit instruction is empty")
	ErrNothingToEdit     = errors.New("studio: the open design has no image")
	ErrNoProducts        = errors.New("studio: the open design has no products")
	ErrUnsupportedAction = errors.New("studio: unsupported action")
)

// Action is an input to the state machine.
type Action interface {
	action()
}

type Submit struct {
	Text        string
	Attachments []intake.Attachment
	ForcedStyle *catalog.Style
}

// PickStyle answers a style-selection message.
type PickStyle struct {
	MessageID string
	StyleID   string
}

// SelectStyle is the always-visible style picker; it regenerates the latest
// attachments when there are any.
type SelectStyle struct {
	StyleID string
}

type SetMode struct{ Mode catalog.Mode }

type SetInputType struct{ InputType catalog.InputType }

type RedesignSettled struct {
	Style   catalog.Style
	Mode    catalog.Mode
	Results []DesignResult
	Err     error
}

type AdviceSettled struct {
	Advice gemini.Advice
	Err    error
}

type Compare struct {
	MessageID string
	Index     int
}

func (Submit) action()          {}
func (PickStyle) action()       {}
func (SelectStyle) action()     {}
func (SetMode) action()         {}
func (SetInputType) action()    {}
func (RedesignSettled) action() {}
func (AdviceSettled) action()   {}
func (Compare) action()         {}

// Effect is the suspending work a transition asks the Session to perform.
type Effect interface {
	effect()
}

type RedesignEffect struct {
	Style       catalog.Style
	Mode        catalog.Mode
	InputType   catalog.InputType
	Attachments []intake.Attachment
}

type AdviceEffect struct {
	Text    string
	History []Message
}

type EditEffect struct {
	MessageID   string
	Index       int
	Image       string
	Instruction string
}

func (RedesignEffect) effect() {}
func (AdviceEffect) effect()   {}
func (EditEffect) effect()     {}

// Reducer computes transitions. NewID and Now are its only inputs besides the
// state and the action, so a fixed pair makes every transition reproducible.
type Reducer struct {
	NewID func() string
	Now   func() time.Time
}

func NewReducer() Reducer {
	return Reducer{NewID: uuid.NewString, Now: time.Now}
}

// Initial is the state of a fresh session.
func (r Reducer) Initial() State {
	st := State{
		Mode:      catalog.ModeInterior,
		InputType: catalog.InputPhoto,
	}
	st.Messages = []Message{r.message(RoleAssistant, TypeText, welcomeText)}
	return st
}

// Reduce returns the next state and the effect to run, if any. On error the
// returned state is the input state.
func (r Reducer) Reduce(st State, act Action) (State, Effect, error) {
	switch a := act.(type) {
	case Submit:
		return r.submit(st, a)
	case PickStyle:
		return r.pickStyle(st, a)
	case SelectStyle:
		return r.selectStyle(st, a)
	case SetMode:
		return r.setMode(st, a)
	case SetInputType:
		if a.InputType != catalog.InputPhoto && a.InputType != catalog.InputSketch {
			return st, nil, fmt.Errorf("studio: invalid input type %q", a.InputType)
		}
		st.InputType = a.InputType
		return st, nil, nil
	case RedesignSettled:
		return r.redesignSettled(st, a), nil, nil
	case AdviceSettled:
		return r.adviceSettled(st, a), nil, nil
	case Compare:
		return r.compare(st, a)
	case OpenOverlay, CloseOverlay, SetTab, HoverProduct, BeginEdit, CancelEdit,
		SetEditText, SliderStart, SliderMove, SliderEnd, Edit, EditSettled, RequestProducts:
		return r.reduceOverlay(st, a)
	default:
		return st, nil, fmt.Errorf("%w: %T", ErrUnsupportedAction, act)
	}
}

func (r Reducer) submit(st State, a Submit) (State, Effect, error) {
	if st.Generating {
		return st, nil, ErrGenerating
	}

	style := a.ForcedStyle
	if style == nil {
		style = st.SelectedStyle
	}

	text := strings.TrimSpace(a.Text)
	if text == "" && len(a.Attachments) == 0 {
		return st, nil, ErrEmptySubmission
	}

	content := text
	if content == "" && style != nil {
		content = defaultInstruction(st.Mode, st.InputType, *style)
	}

	history := st.Messages

	user := r.message(RoleUser, TypeText, content)
	user.Attachments = cloneAttachments(a.Attachments)
	st.Messages = appendMessages(st.Messages, user)

	switch {
	case style == nil && len(a.Attachments) > 0:
		sel := r.message(RoleAssistant, TypeStyleSelection, styleSelectionText(st.InputType))
		sel.Data = StyleSelection{Styles: catalog.Styles(st.Mode)}
		sel.ReplyTo = user.ID
		st.Messages = appendMessages(st.Messages, sel)
		return st, nil, nil

	case style != nil && len(a.Attachments) > 0:
		st.Generating = true
		return st, RedesignEffect{
			Style:       *style,
			Mode:        st.Mode,
			InputType:   st.InputType,
			Attachments: user.Attachments,
		}, nil

	default:
		st.Generating = true
		return st, AdviceEffect{Text: text, History: history}, nil
	}
}

func (r Reducer) pickStyle(st State, a PickStyle) (State, Effect, error) {
	if st.Generating {
		return st, nil, ErrGenerating
	}

	msg, _, ok := st.Message(a.MessageID)
	if !ok {
		return st, nil, ErrUnknownMessage
	}
	sel, ok := msg.StyleSelection()
	if !ok {
		return st, nil, ErrNotStyleSelection
	}

	var picked *catalog.Style
	for _, s := range sel.Styles {
		if s.ID == a.StyleID {
			picked = &s
			break
		}
	}
	if picked == nil {
		return st, nil, fmt.Errorf("%w: %s", ErrUnknownStyle, a.StyleID)
	}

	source, _, ok := st.Message(msg.ReplyTo)
	if !ok {
		return st, nil, ErrUnknownMessage
	}

	next := st
	next.SelectedStyle = picked
	out, eff, err := r.submit(next, Submit{Attachments: source.Attachments, ForcedStyle: picked})
	if err != nil {
		return st, nil, err
	}
	return out, eff, nil
}

func (r Reducer) selectStyle(st State, a SelectStyle) (State, Effect, error) {
	if st.Generating {
		return st, nil, ErrGenerating
	}

	style, ok := catalog.Lookup(st.Mode, a.StyleID)
	if !ok {
		return st, nil, fmt.Errorf("%w: %s", ErrUnknownStyle, a.StyleID)
	}
	next := st
	next.SelectedStyle = &style

	source, ok := st.LastWithAttachments()
	if !ok {
		return next, nil, nil
	}
	out, eff, err := r.submit(next, Submit{Attachments: source.Attachments, ForcedStyle: &style})
	if err != nil {
		return st, nil, err
	}
	return out, eff, nil
}

func (r Reducer) setMode(st State, a SetMode) (State, Effect, error) {
	if catalog.Styles(a.Mode) == nil {
		return st, nil, fmt.Errorf("studio: invalid mode %q", a.Mode)
	}
	st.Mode = a.Mode
	st.SelectedStyle = nil
	st.Messages = appendMessages(st.Messages, r.message(RoleAssistant, TypeText, modeSwitchText(a.Mode)))
	return st, nil, nil
}

func (r Reducer) redesignSettled(st State, a RedesignSettled) State {
	st.Generating = false
	if a.Err != nil {
		st.Messages = appendMessages(st.Messages, r.message(RoleAssistant, TypeText, apologyText))
		return st
	}

	msg := r.message(RoleAssistant, TypeImageGallery, galleryText(a.Mode, a.Style))
	msg.Data = Gallery{Style: a.Style, Entries: a.Results}
	st.Messages = appendMessages(st.Messages, msg)
	return st
}

func (r Reducer) adviceSettled(st State, a AdviceSettled) State {
	st.Generating = false
	if a.Err != nil {
		st.Messages = appendMessages(st.Messages, r.message(RoleAssistant, TypeText, apologyText))
		return st
	}

	msg := r.message(RoleAssistant, TypeText, a.Advice.Text)
	msg.GroundingURLs = append([]gemini.Link{}, a.Advice.Links...)
	st.Messages = appendMessages(st.Messages, msg)
	return st
}

func (r Reducer) compare(st State, a Compare) (State, Effect, error) {
	entry, err := galleryEntry(st, a.MessageID, a.Index)
	if err != nil {
		return st, nil, err
	}
	msg := r.message(RoleAssistant, TypeComparison, comparisonText)
	msg.Data = Comparison{Original: entry.Original, Modified: entry.Modified}
	st.Messages = appendMessages(st.Messages, msg)
	return st, nil, nil
}

func (r Reducer) message(role Role, typ MessageType, content string) Message {
	return Message{
		ID:        r.NewID(),
		Role:      role,
		Type:      typ,
		Content:   content,
		Timestamp: r.Now(),
	}
}

func galleryEntry(st State, messageID string, index int) (DesignResult, error) {
	msg, _, ok := st.Message(messageID)
	if !ok {
		return DesignResult{}, ErrUnknownMessage
	}
	g, ok := msg.Gallery()
	if !ok {
		return DesignResult{}, ErrNotGallery
	}
	if index < 0 || index >= len(g.Entries) {
		return DesignResult{}, ErrIndexOutOfRange
	}
	return g.Entries[index], nil
}

// appendMessages never writes into the backing array of msgs, so earlier
// states keep seeing their own log.
func appendMessages(msgs []Message, more ...Message) []Message {
	out := make([]Message, 0, len(msgs)+len(more))
	out = append(out, msgs...)
	return append(out, more...)
}

func cloneAttachments(atts []intake.Attachment) []intake.Attachment {
	if len(atts) == 0 {
		return nil
	}
	return append([]intake.Attachment(nil), atts...)
}
