// Package mocks holds an in-memory otel.Otel that keeps every span it opens.
package mocks

import (
	"braidbook/infras/otel"
	"context"
	"sync"
)

type Span struct {
	Name       string
	Attributes map[string]any
	Events     []string
	Errors     []error
	Ended      bool
}

type Recorder struct {
	mu    sync.Mutex
	spans []*Span
}

func NewOtel() *Recorder {
	return &Recorder{}
}

func (r *Recorder) NewScope(ctx context.Context, _, spanName string) (context.Context, otel.Scope) {
	span := &Span{Name: spanName, Attributes: map[string]any{}}

	r.mu.Lock()
	r.spans = append(r.spans, span)
	r.mu.Unlock()

	return ctx, &scope{recorder: r, span: span}
}

func (r *Recorder) Shutdown(_ context.Context) error {
	return nil
}

// Spans returns the spans named name in the order they were opened.
func (r *Recorder) Spans(name string) []Span {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := []Span{}

	for _, span := range r.spans {
		if span.Name == name {
			found = append(found, *span)
		}
	}

	return found
}

type scope struct {
	recorder *Recorder
	span     *Span
}

func (s *scope) End() {
	s.recorder.mu.Lock()
	defer s.recorder.mu.Unlock()

	s.span.Ended = true
}

func (s *scope) TraceError(err error) {
	s.recorder.mu.Lock()
	defer s.recorder.mu.Unlock()

	s.span.Errors = append(s.span.Errors, err)
}

func (s *scope) TraceIfError(err *error) {
	if err != nil && *err != nil {
		s.TraceError(*err)
	}
}

func (s *scope) AddEvent(name string) {
	s.recorder.mu.Lock()
	defer s.recorder.mu.Unlock()

	s.span.Events = append(s.span.Events, name)
}

func (s *scope) SetAttribute(key string, value any) {
	s.recorder.mu.Lock()
	defer s.recorder.mu.Unlock()

	s.span.Attributes[key] = value
}

func (s *scope) SetAttributes(attributes map[string]any) {
	for key, value := range attributes {
		s.SetAttribute(key, value)
	}
}
