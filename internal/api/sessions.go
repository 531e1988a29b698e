package api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lumidecor/internal/catalog"
	"lumidecor/internal/intake"
	"lumidecor/internal/session"
	"lumidecor/internal/studio"
)

type ctxKey struct{}

type sessionResponse struct {
	ID      string              `json:"id"`
	State   studio.State        `json:"state"`
	Pending []intake.Attachment `json:"pendingAttachments"`
}

type dispatchResponse struct {
	Messages []studio.Message `json:"messages"`
	Session  sessionResponse  `json:"session"`
}

type stylesResponse struct {
	Mode   catalog.Mode    `json:"mode"`
	Styles []catalog.Style `json:"styles"`
}

func snapshot(e *session.Entry) sessionResponse {
	return sessionResponse{
		ID:      e.ID,
		State:   e.Studio.State(),
		Pending: e.Pending.List(),
	}
}

func (s *server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e, ok := s.sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, e)))
	})
}

func entryFrom(r *http.Request) *session.Entry {
	return r.Context().Value(ctxKey{}).(*session.Entry)
}

// dispatch runs act and answers with the appended messages and a fresh snapshot.
// Generation outlives a dropped connection so the session never stays busy.
func (s *server) dispatch(w http.ResponseWriter, r *http.Request, act studio.Action) {
	e := entryFrom(r)
	appended, err := e.Studio.Dispatch(context.WithoutCancel(r.Context()), act)
	if err != nil {
		s.logger.Debug("dispatch rejected", "session", e.ID, "action", fmt.Sprintf("%T", act), "err", err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	if appended == nil {
		appended = []studio.Message{}
	}
	writeJSON(w, http.StatusOK, dispatchResponse{Messages: appended, Session: snapshot(e)})
}

func (s *server) handleStyles(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("mode")
	if raw == "" {
		out := make([]stylesResponse, 0, len(catalog.Modes()))
		for _, m := range catalog.Modes() {
			out = append(out, stylesResponse{Mode: m, Styles: catalog.Styles(m)})
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	mode, err := catalog.ParseMode(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stylesResponse{Mode: mode, Styles: catalog.Styles(mode)})
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.Create()
	s.logger.Info("session created", "session", e.ID)
	writeJSON(w, http.StatusCreated, snapshot(e))
}

func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, snapshot(entryFrom(r)))
}

func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(entryFrom(r).ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	mode, err := catalog.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.dispatch(w, r, studio.SetMode{Mode: mode})
}

func (s *server) handleSetInputType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InputType string `json:"inputType"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	input, err := catalog.ParseInputType(req.InputType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.dispatch(w, r, studio.SetInputType{InputType: input})
}

func (s *server) handleSelectStyle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StyleID string `json:"styleId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.dispatch(w, r, studio.SelectStyle{StyleID: strings.TrimSpace(req.StyleID)})
}

// handleAddAttachments accepts multipart "images" files or a JSON {dataUrl}
// paste. Either every image is queued or none is.
func (s *server) handleAddAttachments(w http.ResponseWriter, r *http.Request) {
	e := entryFrom(r)
	input := e.Studio.State().InputType

	var added []intake.Attachment
	var err error

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		added, err = s.readMultipart(w, r, input)
	case "application/json":
		var req struct {
			DataURL string `json:"dataUrl"`
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload*2)
		if decodeErr := decodeJSONUnbounded(r, &req); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		var att intake.Attachment
		att, err = intake.FromDataURL(req.DataURL, input)
		added = []intake.Attachment{att}
	default:
		writeError(w, http.StatusUnsupportedMediaType, "expected multipart/form-data or application/json")
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	e.Pending.Add(added...)
	writeJSON(w, http.StatusCreated, map[string]any{
		"attachments": added,
		"pending":     e.Pending.List(),
	})
}

func (s *server) readMultipart(w http.ResponseWriter, r *http.Request, input catalog.InputType) ([]intake.Attachment, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload*maxFilesPerUpload+(1<<20))
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, intake.ErrTooLarge
		}
		return nil, errors.New("invalid multipart form")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		return nil, errors.New("missing images")
	}
	if len(files) > maxFilesPerUpload {
		return nil, errors.New("too many images")
	}

	out := make([]intake.Attachment, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		att, err := intake.FromReader(f, fh.Header.Get("Content-Type"), input, s.maxUpload)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, nil
}

func (s *server) handleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	e := entryFrom(r)
	if !e.Pending.Remove(chi.URLParam(r, "attachmentID")) {
		writeError(w, http.StatusNotFound, "attachment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": e.Pending.List()})
}

// handleSubmit sends the text together with every queued attachment. A
// refused submission puts the attachments back.
func (s *server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	e := entryFrom(r)
	atts := e.Pending.Drain()
	appended, err := e.Studio.Dispatch(context.WithoutCancel(r.Context()), studio.Submit{Text: req.Text, Attachments: atts})
	if err != nil {
		e.Pending.Restore(atts)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dispatchResponse{Messages: appended, Session: snapshot(e)})
}

func (s *server) handlePickStyle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StyleID string `json:"styleId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.dispatch(w, r, studio.PickStyle{MessageID: chi.URLParam(r, "messageID"), StyleID: req.StyleID})
}

func (s *server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index int `json:"index"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.dispatch(w, r, studio.Compare{MessageID: chi.URLParam(r, "messageID"), Index: req.Index})
}

func decodeJSONUnbounded(r *http.Request, v any) error {
	return jsonDecoder(r.Body).Decode(v)
}
