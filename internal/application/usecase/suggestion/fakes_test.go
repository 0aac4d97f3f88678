package suggestion

import (
	"context"
	"errors"
	"sync"

	"github.com/khoahotran/career-compass/internal/application/service"
	"github.com/khoahotran/career-compass/internal/domain/profile"
	"github.com/khoahotran/career-compass/internal/domain/suggestion"
)

type fakeProfiles struct {
	mu          sync.Mutex
	byExternal  map[string]profile.Profile
	getErr      error
	updateErr   error
	rereadErr   error
	completeErr error

	getCalls  int
	updated   map[int64]string
	completed []int64
}

func newFakeProfiles(ps ...profile.Profile) *fakeProfiles {
	f := &fakeProfiles{byExternal: map[string]profile.Profile{}, updated: map[int64]string{}}
	for _, p := range ps {
		f.byExternal[p.ExternalID] = p
	}
	return f
}

func (f *fakeProfiles) GetByExternalID(_ context.Context, externalID string) (*profile.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getCalls > 1 && f.rereadErr != nil {
		return nil, f.rereadErr
	}
	p, ok := f.byExternal[externalID]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) UpdateChosenCareer(_ context.Context, id int64, career string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[id] = career
	for k, p := range f.byExternal {
		if p.ID == id {
			c := career
			p.ChosenCareer = &c
			f.byExternal[k] = p
		}
	}
	return nil
}

func (f *fakeProfiles) MarkCompleted(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, id)
	return f.completeErr
}

type fakeLLM struct {
	mu      sync.Mutex
	raw     string
	err     error
	block   bool
	calls   int
	prompts []string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	raw, err, block := f.raw, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return raw, err
}

func (f *fakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWriter struct {
	mu      sync.Mutex
	failAt  map[int]bool
	records []suggestion.Record
	owners  []int64
	latest  []suggestion.CareerSuggestion
}

var errWriteFailed = errors.New("insert failed")

func (f *fakeWriter) WriteRecord(_ context.Context, profileID int64, rec suggestion.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt[rec.Position] {
		return errWriteFailed
	}
	f.records = append(f.records, rec)
	f.owners = append(f.owners, profileID)
	return nil
}

func (f *fakeWriter) LatestCareerSuggestions(_ context.Context, _ int64) ([]suggestion.CareerSuggestion, error) {
	return f.latest, nil
}

type fakeEvents struct {
	mu        sync.Mutex
	err       error
	events    []service.SuggestionEvent
	requested []service.SuggestionRequestedEvent
}

func (f *fakeEvents) PublishSuggestionRequested(_ context.Context, ev service.SuggestionRequestedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.requested = append(f.requested, ev)
	return nil
}

func (f *fakeEvents) PublishSuggestionEvent(_ context.Context, ev service.SuggestionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}
