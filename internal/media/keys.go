package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// KeySelector is the host's key-selection facility for paid video generation.
type KeySelector interface {
	HasSelectedKey(ctx context.Context) (bool, error)
	OpenSelectKey(ctx context.Context) error
	SelectedKey() string
}

// KeyGate runs the selection flow at most once at a time and returns the key
// to use. When no key is selected it opens the selector and proceeds with
// whatever the selector reports afterwards.
type KeyGate struct {
	mu       sync.Mutex
	selector KeySelector
}

// NewKeyGate wraps selector.
func NewKeyGate(selector KeySelector) *KeyGate {
	return &KeyGate{selector: selector}
}

// Ensure makes sure a key has been selected and returns it.
func (g *KeyGate) Ensure(ctx context.Context) (string, error) {
	if g == nil || g.selector == nil {
		return "", nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	selected, err := g.selector.HasSelectedKey(ctx)
	if err != nil {
		return "", fmt.Errorf("check selected key: %w", err)
	}
	if !selected {
		if err := g.selector.OpenSelectKey(ctx); err != nil {
			return "", fmt.Errorf("open key selection: %w", err)
		}
	}
	return g.selector.SelectedKey(), nil
}

// StaticKeys serves a key fixed by configuration or the environment.
type StaticKeys struct {
	Key string
}

func (s StaticKeys) HasSelectedKey(context.Context) (bool, error) {
	return strings.TrimSpace(s.Key) != "", nil
}

func (s StaticKeys) OpenSelectKey(context.Context) error {
	return errors.New("no video API key configured; set gemini.video_api_key or GEMINI_VIDEO_API_KEY")
}

func (s StaticKeys) SelectedKey() string { return strings.TrimSpace(s.Key) }

// PromptKeys asks for a key on an attached terminal the first time one is
// needed, starting from an optional preset key.
type PromptKeys struct {
	mu     sync.Mutex
	key    string
	input  *os.File
	output io.Writer
}

// NewPromptKeys reads from input and writes the prompt to output.
func NewPromptKeys(preset string, input *os.File, output io.Writer) *PromptKeys {
	return &PromptKeys{key: strings.TrimSpace(preset), input: input, output: output}
}

func (p *PromptKeys) HasSelectedKey(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key != "", nil
}

func (p *PromptKeys) OpenSelectKey(ctx context.Context) error {
	if p.input == nil || !(isatty.IsTerminal(p.input.Fd()) || isatty.IsCygwinTerminal(p.input.Fd())) {
		return errors.New("no terminal attached to select a video API key")
	}
	if p.output != nil {
		fmt.Fprint(p.output, "Video generation requires a paid Gemini API key.\nEnter API key: ")
	}
	line, err := readLine(ctx, p.input)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.key = strings.TrimSpace(line)
	p.mu.Unlock()
	return nil
}

func (p *PromptKeys) SelectedKey() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key
}

func readLine(ctx context.Context, r io.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(r).ReadString('\n')
		if errors.Is(err, io.EOF) && line != "" {
			err = nil
		}
		ch <- result{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}
