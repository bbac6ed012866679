package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bhuisgen/scriptloader/pkg/core"
)

// testFetcher fetches the sources of its map, and fails for other locators.
type testFetcher struct {
	sources map[string]string
	delays  map[string]time.Duration
	mu      sync.Mutex
	fetched []string
}

func (f *testFetcher) Fetch(ctx context.Context, locator string) (*core.Resource, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, locator)
	f.mu.Unlock()

	if d, ok := f.delays[locator]; ok {
		time.Sleep(d)
	}
	source, ok := f.sources[locator]
	if !ok {
		return nil, fmt.Errorf("read file %s: not found", locator)
	}
	return &core.Resource{Locator: locator, Data: []byte(source)}, nil
}

func (f *testFetcher) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.fetched...)
}

var _ core.Fetcher = (*testFetcher)(nil)

// emptyFetcher returns no resource and no error.
type emptyFetcher struct{}

func (f emptyFetcher) Fetch(ctx context.Context, locator string) (*core.Resource, error) {
	return nil, nil
}

var _ core.Fetcher = emptyFetcher{}

// testEngine records the executed sources. It fails on the source "fail" and
// panics on the source "panic".
type testEngine struct {
	mu       sync.Mutex
	executed []string
}

func (e *testEngine) Execute(ctx context.Context, name string, source []byte) error {
	switch string(source) {
	case "fail":
		return errors.New("SyntaxError: unexpected token")
	case "panic":
		panic("engine crashed")
	}
	e.mu.Lock()
	e.executed = append(e.executed, name)
	e.mu.Unlock()
	return nil
}

func (e *testEngine) Executed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.executed...)
}

var _ core.Engine = (*testEngine)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
