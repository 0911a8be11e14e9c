// Package adapter binds displayed strings to a dobhasi.Translator. Each
// binding re-translates when the active language or its input changes and
// reports the result through a callback. Results of superseded requests are
// discarded.
package adapter

import (
	"context"
	"sync"

	"github.com/ZaguanLabs/dobhasi"
)

// Source is what bindings need from a translator. *dobhasi.Translator implements it.
type Source interface {
	dobhasi.BatchTranslator
	Language() dobhasi.Language
	Subscribe() (<-chan dobhasi.Language, func())
}

// State is the lifecycle state of a binding.
type State int

const (
	// Idle means the current value is final for the current input and language.
	Idle State = iota
	// Pending means a translation is in flight; the value is the original input.
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Option configures a binding.
type Option func(*options)

type options struct {
	override dobhasi.Language
}

// WithLanguage pins the binding to lang regardless of the active language.
// Used for content authored in Bengali that must be shown in English.
func WithLanguage(lang dobhasi.Language) Option {
	return func(o *options) {
		o.override = lang
	}
}

// binding is the shared machinery behind Text, Texts and Records. Each
// request gets a cancellable token; a new request, a language change or
// Close cancels the previous token, and a result is committed only while its
// token is still current.
type binding[T any] struct {
	src      Source
	override dobhasi.Language
	onChange func(T)

	// immediate returns the value for lang without a round trip, if possible.
	immediate func(lang dobhasi.Language) (T, bool)
	// pending returns the value shown while a request is in flight.
	pending func() T
	// fetch performs the translation.
	fetch func(ctx context.Context, lang dobhasi.Language) T

	mu     sync.Mutex
	value  T
	state  State
	lang   dobhasi.Language
	gen    uint64
	cancel context.CancelFunc
	closed bool

	wg    sync.WaitGroup
	unsub func()
	done  chan struct{}
}

func (b *binding[T]) start(opts []Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	b.override = o.override

	ch, unsub := b.src.Subscribe()
	b.unsub = unsub
	b.done = make(chan struct{})
	b.lang = b.src.Language()

	go func() {
		defer close(b.done)
		for lang := range ch {
			b.mu.Lock()
			b.lang = lang
			b.mu.Unlock()
			b.refresh()
		}
	}()

	b.refresh()
}

// target returns the language to translate into and whether it was pinned.
func (b *binding[T]) target() (dobhasi.Language, bool) {
	if b.override != "" {
		return b.override, true
	}
	return b.lang, false
}

// refresh cancels any in-flight request and starts a new one for the
// current input and language.
func (b *binding[T]) refresh() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}

	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.gen++
	gen := b.gen

	lang, pinned := b.target()
	if !pinned {
		if v, ok := b.immediate(lang); ok {
			b.value = v
			b.state = Idle
			b.mu.Unlock()
			b.notify(v)
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.value = b.pending()
	b.state = Pending
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		v := b.fetch(ctx, lang)

		b.mu.Lock()
		if ctx.Err() != nil || gen != b.gen || b.closed {
			b.mu.Unlock()
			return
		}
		b.value = v
		b.state = Idle
		b.cancel = nil
		b.mu.Unlock()
		cancel()

		b.notify(v)
	}()
}

func (b *binding[T]) notify(v T) {
	if b.onChange != nil {
		b.onChange(v)
	}
}

func (b *binding[T]) get() (T, State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, b.state
}

// wait blocks until no request is in flight.
func (b *binding[T]) wait() {
	b.wg.Wait()
}

// close cancels the in-flight request and stops following language changes.
func (b *binding[T]) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.mu.Unlock()

	b.unsub()
	<-b.done
	b.wg.Wait()
}
