package conversation

import (
	"context"
	"errors"
	"sync"
)

// scriptedLLM replays canned completions in order and records requests.
type scriptedLLM struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []LLMRequest
}

func (s *scriptedLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	if len(s.replies) == 0 {
		return LLMResponse{Text: "{}"}, nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return LLMResponse{Text: reply}, nil
}

type fakeClassifier struct {
	dest  Destination
	err   error
	calls int
}

func (f *fakeClassifier) ClassifyIntent(context.Context, string) (Destination, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.dest, nil
}

type fakeExtractor struct {
	result    ExtractionResult
	err       error
	panicking bool
	calls     int
	lastText  string
}

func (f *fakeExtractor) ExtractBookingFields(_ context.Context, _ *BookingMemory, text string) (ExtractionResult, error) {
	f.calls++
	f.lastText = text
	if f.panicking {
		panic("extractor exploded")
	}
	return f.result, f.err
}

// fakeScheduler pops availability verdicts from a sequence; once exhausted it
// repeats the last one.
type fakeScheduler struct {
	verdicts []bool
	calls    int
	hours    []string
}

func (f *fakeScheduler) CheckAvailability(_ context.Context, _, hour string) bool {
	f.calls++
	f.hours = append(f.hours, hour)
	if len(f.verdicts) == 0 {
		return false
	}
	v := f.verdicts[0]
	if len(f.verdicts) > 1 {
		f.verdicts = f.verdicts[1:]
	}
	return v
}

type fakeTickets struct {
	id        string
	err       error
	summaries []string
}

func (f *fakeTickets) CreateTicket(_ context.Context, summary string) (string, error) {
	f.summaries = append(f.summaries, summary)
	if f.err != nil {
		return "", f.err
	}
	if f.id == "" {
		return "TICKET-1234", nil
	}
	return f.id, nil
}

var errFakeFailure = errors.New("fake failure")
