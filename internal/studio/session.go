package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"lumidecor/internal/catalog"
	"lumidecor/internal/gemini"
)

// Generator is the image and advice backend. *gemini.Client satisfies it.
type Generator interface {
	Redesign(ctx context.Context, image, stylePrompt string, mode catalog.Mode, input catalog.InputType) (string, error)
	Edit(ctx context.Context, image, instruction string) (string, error)
	Advise(ctx context.Context, text string, history []gemini.Message) (gemini.Advice, error)
}

type ProductLookup interface {
	Products(ctx context.Context, style catalog.Style, mode catalog.Mode) ([]Product, error)
}

// Recorder receives generation outcomes. metrics.Collectors implements it.
type Recorder interface {
	ObserveGeneration(op, outcome string, d time.Duration)
	RejectedSubmission()
}

const (
	OpRedesign = "redesign"
	OpAdvice   = "advice"
	OpEdit     = "edit"

	OutcomeOK      = "ok"
	OutcomeNoImage = "no_image"
	OutcomeError   = "error"
)

type Options struct {
	Generator  Generator
	Products   ProductLookup
	Recorder   Recorder
	Logger     *slog.Logger
	Reducer    Reducer
	MaxHistory int
	Timeout    time.Duration
}

// Session owns one conversation. Transitions happen under its mutex; effects
// run without it, so readers keep seeing the Generating flag while a call is
// in flight.
type Session struct {
	mu    sync.Mutex
	state State

	reducer    Reducer
	gen        Generator
	products   ProductLookup
	recorder   Recorder
	logger     *slog.Logger
	maxHistory int
	timeout    time.Duration
}

func NewSession(opts Options) *Session {
	reducer := opts.Reducer
	if reducer.NewID == nil || reducer.Now == nil {
		def := NewReducer()
		if reducer.NewID == nil {
			reducer.NewID = def.NewID
		}
		if reducer.Now == nil {
			reducer.Now = def.Now
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	maxHistory := opts.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 20
	}

	return &Session{
		state:      reducer.Initial(),
		reducer:    reducer,
		gen:        opts.Generator,
		products:   opts.Products,
		recorder:   recorder,
		logger:     logger,
		maxHistory: maxHistory,
		timeout:    opts.Timeout,
	}
}

// State returns a snapshot. Slices in it are never written to afterwards.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies act and, when the transition asks for it, runs the
// generation call and applies its outcome. It returns every message appended
// on behalf of act. Generation failures surface as assistant messages, not as
// errors.
func (s *Session) Dispatch(ctx context.Context, act Action) ([]Message, error) {
	appended, eff, err := s.apply(act)
	if err != nil {
		if errors.Is(err, ErrGenerating) {
			s.recorder.RejectedSubmission()
		}
		return nil, err
	}
	if eff == nil {
		return appended, nil
	}

	settle := s.run(ctx, eff)

	more, _, err := s.apply(settle)
	if err != nil {
		return appended, fmt.Errorf("studio: settle %T: %w", settle, err)
	}
	return append(appended, more...), nil
}

func (s *Session) apply(act Action) ([]Message, Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := len(s.state.Messages)
	next, eff, err := s.reducer.Reduce(s.state, act)
	if err != nil {
		return nil, nil, err
	}
	s.state = next

	var appended []Message
	if len(next.Messages) > prev {
		appended = append(appended, next.Messages[prev:]...)
	}
	return appended, eff, nil
}

func (s *Session) run(ctx context.Context, eff Effect) (settle Action) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	switch e := eff.(type) {
	case RedesignEffect:
		settle = RedesignSettled{Style: e.Style, Mode: e.Mode}
	case AdviceEffect:
		settle = AdviceSettled{}
	case EditEffect:
		settle = EditSettled{MessageID: e.MessageID, Index: e.Index}
	default:
		panic(fmt.Sprintf("studio: unknown effect %T", eff))
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("generation panicked", "effect", fmt.Sprintf("%T", eff), "panic", r)
			settle = failed(settle, fmt.Errorf("studio: generation panicked: %v", r))
		}
	}()

	if s.gen == nil {
		return failed(settle, errors.New("studio: no generator configured"))
	}

	switch e := eff.(type) {
	case RedesignEffect:
		results, err := s.redesign(ctx, e)
		return RedesignSettled{Style: e.Style, Mode: e.Mode, Results: results, Err: err}
	case AdviceEffect:
		advice, err := s.advise(ctx, e)
		return AdviceSettled{Advice: advice, Err: err}
	case EditEffect:
		image, err := s.edit(ctx, e)
		return EditSettled{MessageID: e.MessageID, Index: e.Index, Image: image, Err: err}
	}
	return settle
}

// redesign generates one design per attachment. Any failure other than a
// missing image fails the whole batch.
func (s *Session) redesign(ctx context.Context, e RedesignEffect) ([]DesignResult, error) {
	results := make([]DesignResult, len(e.Attachments))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, att := range e.Attachments {
		i, att := i, att
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("redesign attachment %s panicked: %v", att.ID, r)
				}
			}()

			start := time.Now()
			modified, err := s.gen.Redesign(egCtx, att.URL, e.Style.Prompt, e.Mode, e.InputType)
			switch {
			case errors.Is(err, gemini.ErrNoImageProduced):
				s.recorder.ObserveGeneration(OpRedesign, OutcomeNoImage, time.Since(start))
				s.logger.Warn("redesign produced no image", "style", e.Style.ID, "attachment", att.ID)
				results[i] = DesignResult{Original: att.URL, NoImage: true}
				return nil
			case err != nil:
				s.recorder.ObserveGeneration(OpRedesign, OutcomeError, time.Since(start))
				return fmt.Errorf("redesign attachment %s: %w", att.ID, err)
			}
			s.recorder.ObserveGeneration(OpRedesign, OutcomeOK, time.Since(start))

			res := DesignResult{Original: att.URL, Modified: modified}
			if e.Mode == catalog.ModeInterior && s.products != nil {
				products, err := s.products.Products(egCtx, e.Style, e.Mode)
				if err != nil {
					s.logger.Warn("product lookup failed", "style", e.Style.ID, "err", err)
				} else {
					res.Products = products
				}
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		s.logger.Error("redesign failed", "style", e.Style.ID, "mode", e.Mode, "err", err)
		return nil, err
	}
	return results, nil
}

func (s *Session) advise(ctx context.Context, e AdviceEffect) (gemini.Advice, error) {
	start := time.Now()
	advice, err := s.gen.Advise(ctx, e.Text, s.history(e.History))
	if err != nil {
		s.recorder.ObserveGeneration(OpAdvice, OutcomeError, time.Since(start))
		s.logger.Error("advice failed", "err", err)
		return gemini.Advice{}, err
	}
	s.recorder.ObserveGeneration(OpAdvice, OutcomeOK, time.Since(start))
	return advice, nil
}

func (s *Session) edit(ctx context.Context, e EditEffect) (string, error) {
	start := time.Now()
	image, err := s.gen.Edit(ctx, e.Image, e.Instruction)
	switch {
	case errors.Is(err, gemini.ErrNoImageProduced):
		s.recorder.ObserveGeneration(OpEdit, OutcomeNoImage, time.Since(start))
		return "", err
	case err != nil:
		s.recorder.ObserveGeneration(OpEdit, OutcomeError, time.Since(start))
		s.logger.Error("edit failed", "message", e.MessageID, "index", e.Index, "err", err)
		return "", err
	}
	s.recorder.ObserveGeneration(OpEdit, OutcomeOK, time.Since(start))
	return image, nil
}

// history converts the log into model turns, keeping the most recent maxHistory.
func (s *Session) history(msgs []Message) []gemini.Message {
	if len(msgs) > s.maxHistory {
		msgs = msgs[len(msgs)-s.maxHistory:]
	}
	out := make([]gemini.Message, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out = append(out, gemini.Message{Role: role, Text: m.Content})
	}
	return out
}

func failed(settle Action, err error) Action {
	switch a := settle.(type) {
	case RedesignSettled:
		a.Err = err
		return a
	case AdviceSettled:
		a.Err = err
		return a
	case EditSettled:
		a.Err = err
		return a
	}
	return settle
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(string, string, time.Duration) {}

func (nopRecorder) RejectedSubmission() {}
