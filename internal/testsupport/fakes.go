package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cineboard/internal/media"
	"cineboard/internal/storyboard"
)

// Draft builds an analyzer result with n numbered scenes.
func Draft(title string, n int) storyboard.Draft {
	draft := storyboard.Draft{Title: title}
	for i := 0; i < n; i++ {
		draft.Scenes = append(draft.Scenes, storyboard.SceneDraft{
			Title:        fmt.Sprintf("Scene %d", i+1),
			Action:       fmt.Sprintf("Action %d", i+1),
			VisualPrompt: fmt.Sprintf("prompt-%d", i),
		})
	}
	return draft
}

// FakeAnalyzer returns a canned draft or error and records its calls.
type FakeAnalyzer struct {
	mu    sync.Mutex
	Draft storyboard.Draft
	Err   error
	// Gate, when set, blocks each call until it receives a value or the
	// context ends.
	Gate  chan struct{}
	calls []string
}

// Analyze implements analyzer.Analyzer.
func (f *FakeAnalyzer) Analyze(ctx context.Context, text string, _ storyboard.Mode) (storyboard.Draft, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	draft, err, gate := f.Draft, f.Err, f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return storyboard.Draft{}, ctx.Err()
		}
	}
	return draft, err
}

// Calls returns the story texts seen so far.
func (f *FakeAnalyzer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// FakeGenerator produces deterministic assets. Prompts listed in Fail error
// out; a prompt mapped in Gates blocks until the channel yields.
type FakeGenerator struct {
	mu    sync.Mutex
	mode  storyboard.Mode
	Fail  map[string]error
	Gates map[string]chan struct{}
	calls []string
}

// NewFakeGenerator returns a generator for mode with no failures configured.
func NewFakeGenerator(mode storyboard.Mode) *FakeGenerator {
	return &FakeGenerator{
		mode:  mode,
		Fail:  make(map[string]error),
		Gates: make(map[string]chan struct{}),
	}
}

// Mode implements media.Generator.
func (f *FakeGenerator) Mode() storyboard.Mode { return f.mode }

// Generate implements media.Generator.
func (f *FakeGenerator) Generate(ctx context.Context, prompt string) (media.Asset, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	failure := f.Fail[prompt]
	gate := f.Gates[prompt]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return media.Asset{}, ctx.Err()
		}
	}
	if failure != nil {
		return media.Asset{}, failure
	}
	mimeType := "image/png"
	if f.mode == storyboard.ModeVideo {
		mimeType = "video/mp4"
	}
	return media.Asset{Data: []byte(strings.ToUpper(prompt)), MIMEType: mimeType}, nil
}

// SetFailure configures (or clears, with nil) the error returned for prompt.
func (f *FakeGenerator) SetFailure(prompt string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.Fail, prompt)
		return
	}
	f.Fail[prompt] = err
}

// SetGate installs a gate for prompt and returns it.
func (f *FakeGenerator) SetGate(prompt string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.Gates[prompt] = gate
	return gate
}

// Calls returns the prompts seen so far in call order.
func (f *FakeGenerator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
