package api

import (
	"net/http"

	"lumidecor/internal/studio"
)

type sliderRequest struct {
	// Action is one of start, move or end.
	Action string  `json:"action"`
	X      float64 `json:"x"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// overlayPatch carries UI changes to the open design; absent fields are left alone.
type overlayPatch struct {
	Tab              *studio.Tab    `json:"tab"`
	HoveredProductID *string        `json:"hoveredProductId"`
	Editing          *bool          `json:"editing"`
	EditText         *string        `json:"editText"`
	Slider           *sliderRequest `json:"slider"`
}

func (p overlayPatch) actions() ([]studio.Action, bool) {
	var acts []studio.Action
	if p.Tab != nil {
		acts = append(acts, studio.SetTab{Tab: *p.Tab})
	}
	if p.HoveredProductID != nil {
		acts = append(acts, studio.HoverProduct{ProductID: *p.HoveredProductID})
	}
	if p.Editing != nil {
		if *p.Editing {
			acts = append(acts, studio.BeginEdit{})
		} else {
			acts = append(acts, studio.CancelEdit{})
		}
	}
	if p.EditText != nil {
		acts = append(acts, studio.SetEditText{Text: *p.EditText})
	}
	if p.Slider != nil {
		switch p.Slider.Action {
		case "start":
			acts = append(acts, studio.SliderStart{X: p.Slider.X, Left: p.Slider.Left, Width: p.Slider.Width})
		case "move":
			acts = append(acts, studio.SliderMove{X: p.Slider.X, Left: p.Slider.Left, Width: p.Slider.Width})
		case "end":
			acts = append(acts, studio.SliderEnd{})
		default:
			return nil, false
		}
	}
	return acts, true
}

func (s *server) handleOpenOverlay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID string `json:"messageId"`
		Index     int    `json:"index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.dispatch(w, r, studio.OpenOverlay{MessageID: req.MessageID, Index: req.Index})
}

// handleUpdateOverlay applies the patch field by field and stops at the first
// rejected change.
func (s *server) handleUpdateOverlay(w http.ResponseWriter, r *http.Request) {
	var patch overlayPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	acts, ok := patch.actions()
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid slider action")
		return
	}

	e := entryFrom(r)
	for _, act := range acts {
		if _, err := e.Studio.Dispatch(r.Context(), act); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, snapshot(e))
}

func (s *server) handleCloseOverlay(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, studio.CloseOverlay{})
}

func (s *server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instruction string `json:"instruction"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.dispatch(w, r, studio.Edit{Instruction: req.Instruction})
}

func (s *server) handleRequestProducts(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, studio.RequestProducts{})
}
