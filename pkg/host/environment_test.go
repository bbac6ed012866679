package host

import (
	"bytes"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bhuisgen/scriptloader/pkg/core"
	"github.com/stretchr/testify/require"
)

func newTestEnvironment(t *testing.T, fetcher core.Fetcher, engine *testEngine) *Environment {
	t.Helper()

	env, err := NewEnvironment(fetcher, engine, WithLogger(testLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })

	return env
}

func appendScript(t *testing.T, env *Environment, src string, onLoad func(*Element),
	onError func(*Element, error)) *Element {
	t.Helper()

	doc := env.Document()
	el := doc.CreateElement("script")
	el.SetSrc(src)
	el.OnLoad(onLoad)
	el.OnError(onError)
	require.NoError(t, doc.Head().AppendChild(el))

	return el
}

func TestNewEnvironment(t *testing.T) {
	t.Run("missing fetcher", func(t *testing.T) {
		_, err := NewEnvironment(nil, &testEngine{})
		require.Error(t, err)
	})

	t.Run("missing engine", func(t *testing.T) {
		_, err := NewEnvironment(&testFetcher{}, nil)
		require.Error(t, err)
	})

	t.Run("index", func(t *testing.T) {
		env, err := NewEnvironment(&testFetcher{}, &testEngine{}, WithLogger(testLogger()),
			WithIndex([]byte(`<html><head><title>app</title></head><body></body></html>`)))
		require.NoError(t, err)
		defer env.Close()

		var buf bytes.Buffer
		require.NoError(t, env.Document().Render(&buf))
		require.Contains(t, buf.String(), "<title>app</title>")
		require.Same(t, env, env.Document().Environment())
	})
}

func TestEnvironmentLoad(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fetcher := &testFetcher{sources: map[string]string{"1.js": "var a = 1;"}}
		engine := &testEngine{}
		env := newTestEnvironment(t, fetcher, engine)

		var loads, errs int32
		el := appendScript(t, env, "1.js",
			func(el *Element) { atomic.AddInt32(&loads, 1) },
			func(el *Element, err error) { atomic.AddInt32(&errs, 1) })

		require.NoError(t, env.Close())

		require.Equal(t, int32(1), atomic.LoadInt32(&loads))
		require.Equal(t, int32(0), atomic.LoadInt32(&errs))
		require.Equal(t, StateLoaded, el.State())
		require.NoError(t, el.Err())
		require.Equal(t, []string{"1.js"}, engine.Executed())
	})

	t.Run("fetch failure", func(t *testing.T) {
		env := newTestEnvironment(t, &testFetcher{}, &testEngine{})

		var loads, errs int32
		var gotErr error
		el := appendScript(t, env, "1.js",
			func(el *Element) { atomic.AddInt32(&loads, 1) },
			func(el *Element, err error) {
				atomic.AddInt32(&errs, 1)
				gotErr = err
			})

		require.NoError(t, env.Close())

		require.Equal(t, int32(0), atomic.LoadInt32(&loads))
		require.Equal(t, int32(1), atomic.LoadInt32(&errs))
		require.Equal(t, StateFailed, el.State())
		require.ErrorContains(t, gotErr, "fetch: read file 1.js")
		require.Equal(t, gotErr, el.Err())
	})

	t.Run("execute failure", func(t *testing.T) {
		fetcher := &testFetcher{sources: map[string]string{"1.js": "fail"}}
		env := newTestEnvironment(t, fetcher, &testEngine{})

		var gotErr error
		el := appendScript(t, env, "1.js", nil, func(el *Element, err error) { gotErr = err })

		require.NoError(t, env.Close())

		require.Equal(t, StateFailed, el.State())
		require.ErrorContains(t, gotErr, "execute: SyntaxError")
	})

	t.Run("empty resource", func(t *testing.T) {
		env := newTestEnvironment(t, emptyFetcher{}, &testEngine{})

		var loads, errs int32
		var gotErr error
		el := appendScript(t, env, "1.js",
			func(el *Element) { atomic.AddInt32(&loads, 1) },
			func(el *Element, err error) {
				atomic.AddInt32(&errs, 1)
				gotErr = err
			})

		require.NoError(t, env.Close())

		require.Equal(t, int32(0), atomic.LoadInt32(&loads))
		require.Equal(t, int32(1), atomic.LoadInt32(&errs))
		require.Equal(t, StateFailed, el.State())
		require.EqualError(t, gotErr, "fetch: empty resource")
	})

	t.Run("engine panic", func(t *testing.T) {
		fetcher := &testFetcher{sources: map[string]string{"1.js": "panic"}}
		env := newTestEnvironment(t, fetcher, &testEngine{})

		var errs int32
		var gotErr error
		el := appendScript(t, env, "1.js", nil, func(el *Element, err error) {
			atomic.AddInt32(&errs, 1)
			gotErr = err
		})

		require.NoError(t, env.Close())

		require.Equal(t, int32(1), atomic.LoadInt32(&errs))
		require.Equal(t, StateFailed, el.State())
		require.ErrorContains(t, gotErr, "execute: engine panic: engine crashed")
	})

	t.Run("failure without handler", func(t *testing.T) {
		env := newTestEnvironment(t, &testFetcher{}, &testEngine{})

		el := appendScript(t, env, "1.js", nil, nil)

		require.NoError(t, env.Close())
		require.Equal(t, StateFailed, el.State())
	})

	t.Run("not connected", func(t *testing.T) {
		fetcher := &testFetcher{sources: map[string]string{"1.js": ""}}
		env := newTestEnvironment(t, fetcher, &testEngine{})

		doc := env.Document()
		div := doc.CreateElement("div")
		el := doc.CreateElement("script")
		el.SetSrc("1.js")
		require.NoError(t, div.AppendChild(el))

		require.NoError(t, env.Close())
		require.Equal(t, StateCreated, el.State())
		require.Empty(t, fetcher.Fetched())
	})

	t.Run("without src", func(t *testing.T) {
		fetcher := &testFetcher{}
		env := newTestEnvironment(t, fetcher, &testEngine{})

		doc := env.Document()
		el := doc.CreateElement("script")
		require.NoError(t, doc.Head().AppendChild(el))

		require.NoError(t, env.Close())
		require.Equal(t, StateCreated, el.State())
		require.Empty(t, fetcher.Fetched())
	})
}

func TestEnvironmentNotificationsAreSerialized(t *testing.T) {
	sources := map[string]string{}
	for _, src := range []string{"1.js", "2.js", "3.js", "4.js", "5.js"} {
		sources[src] = ""
	}
	env := newTestEnvironment(t, &testFetcher{sources: sources}, &testEngine{})

	var active, maxActive int32
	notify := func(el *Element) {
		n := atomic.AddInt32(&active, 1)
		if n > atomic.LoadInt32(&maxActive) {
			atomic.StoreInt32(&maxActive, n)
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	}
	for src := range sources {
		appendScript(t, env, src, notify, nil)
	}

	require.NoError(t, env.Close())
	require.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestEnvironmentIndependentLoadsAreUnordered(t *testing.T) {
	fetcher := &testFetcher{
		sources: map[string]string{"slow.js": "", "fast.js": ""},
		delays:  map[string]time.Duration{"slow.js": 50 * time.Millisecond},
	}
	engine := &testEngine{}
	env := newTestEnvironment(t, fetcher, engine)

	appendScript(t, env, "slow.js", nil, nil)
	appendScript(t, env, "fast.js", nil, nil)

	require.NoError(t, env.Close())
	require.Equal(t, []string{"fast.js", "slow.js"}, engine.Executed())
}

func TestEnvironmentClose(t *testing.T) {
	t.Run("waits for loads issued by notifications", func(t *testing.T) {
		fetcher := &testFetcher{sources: map[string]string{"1.js": "", "2.js": ""}}
		engine := &testEngine{}
		env := newTestEnvironment(t, fetcher, engine)

		var second *Element
		appendScript(t, env, "1.js", func(el *Element) {
			doc := env.Document()
			second = doc.CreateElement("script")
			second.SetSrc("2.js")
			if err := doc.Head().AppendChild(second); err != nil {
				t.Errorf("Element.AppendChild() error = %v", err)
			}
		}, nil)

		require.NoError(t, env.Close())
		require.Equal(t, []string{"1.js", "2.js"}, engine.Executed())
		require.Equal(t, StateLoaded, second.State())
	})

	t.Run("rejects appends once closed", func(t *testing.T) {
		env := newTestEnvironment(t, &testFetcher{}, &testEngine{})
		require.NoError(t, env.Close())
		require.NoError(t, env.Close())

		doc := env.Document()
		el := doc.CreateElement("script")
		el.SetSrc("1.js")
		require.ErrorIs(t, doc.Head().AppendChild(el), ErrClosed)
		require.Equal(t, StateCreated, el.State())
	})

	t.Run("recovers from panicking notification", func(t *testing.T) {
		fetcher := &testFetcher{sources: map[string]string{"1.js": "", "2.js": ""}}
		env := newTestEnvironment(t, fetcher, &testEngine{})

		var loaded int32
		appendScript(t, env, "1.js", func(el *Element) { panic("test") }, nil)
		appendScript(t, env, "2.js", func(el *Element) { atomic.AddInt32(&loaded, 1) }, nil)

		require.NoError(t, env.Close())
		require.Equal(t, int32(1), atomic.LoadInt32(&loaded))
	})
}
