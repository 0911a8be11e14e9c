package adapter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ZaguanLabs/dobhasi"
	"github.com/ZaguanLabs/dobhasi/provider"
)

// fakeSource is a Source whose translations are "<lang>:<text>". When gate is
// set, TranslateBatch blocks until the gate is closed; unless ignoreCtx is
// set it returns the originals early when ctx is cancelled, like the gateway.
type fakeSource struct {
	mu        sync.Mutex
	lang      dobhasi.Language
	subs      map[chan dobhasi.Language]bool
	gate      chan struct{}
	ignoreCtx bool
	batches   [][]string
	overrides [][]dobhasi.Language
}

func newFakeSource(lang dobhasi.Language) *fakeSource {
	return &fakeSource{lang: lang, subs: make(map[chan dobhasi.Language]bool)}
}

func (f *fakeSource) TranslateBatch(ctx context.Context, texts []string, override ...dobhasi.Language) []string {
	f.mu.Lock()
	f.batches = append(f.batches, append([]string(nil), texts...))
	f.overrides = append(f.overrides, override)
	gate, ignoreCtx := f.gate, f.ignoreCtx
	lang := f.lang
	f.mu.Unlock()

	if len(override) > 0 {
		lang = override[0]
	}

	if gate != nil {
		if ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return append([]string(nil), texts...)
			}
		}
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		if dobhasi.IsBlank(text) {
			out[i] = text
			continue
		}
		out[i] = string(lang) + ":" + text
	}
	return out
}

func (f *fakeSource) Language() dobhasi.Language {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lang
}

func (f *fakeSource) Subscribe() (<-chan dobhasi.Language, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan dobhasi.Language, 1)
	f.subs[ch] = true
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.subs[ch] {
			delete(f.subs, ch)
			close(ch)
		}
	}
}

func (f *fakeSource) SetLanguage(lang dobhasi.Language) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lang = lang
	for ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- lang
	}
}

func (f *fakeSource) Batches() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.batches...)
}

func collect[T any]() (chan T, func(T)) {
	ch := make(chan T, 16)
	return ch, func(v T) { ch <- v }
}

func receive[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a committed value")
	}
	var zero T
	return zero
}

func TestText_EnglishIsSynchronous(t *testing.T) {
	src := newFakeSource(dobhasi.English)
	ch, onChange := collect[string]()

	txt := NewText(src, "Admission Open", onChange)
	defer txt.Close()

	select {
	case v := <-ch:
		if v != "Admission Open" {
			t.Errorf("onChange(%q), want original", v)
		}
	default:
		t.Fatal("English value should be committed before NewText returns")
	}

	if v, state := txt.Value(); v != "Admission Open" || state != Idle {
		t.Errorf("Value() = %q, %v", v, state)
	}
	if len(src.Batches()) != 0 {
		t.Error("English should not round-trip")
	}
}

func TestText_Bengali(t *testing.T) {
	src := newFakeSource(dobhasi.Bengali)
	src.gate = make(chan struct{})
	ch, onChange := collect[string]()

	txt := NewText(src, "Hello", onChange)
	defer txt.Close()

	if v, state := txt.Value(); v != "Hello" || state != Pending {
		t.Errorf("Value() = %q, %v; want original while pending", v, state)
	}

	close(src.gate)
	if v := receive(t, ch); v != "bn:Hello" {
		t.Errorf("onChange(%q)", v)
	}
	if v, state := txt.Value(); v != "bn:Hello" || state != Idle {
		t.Errorf("Value() = %q, %v", v, state)
	}
	if txt.String() != "bn:Hello" {
		t.Errorf("String() = %q", txt.String())
	}
}

func TestText_FollowsLanguage(t *testing.T) {
	src := newFakeSource(dobhasi.English)
	ch, onChange := collect[string]()

	txt := NewText(src, "Save", onChange)
	defer txt.Close()
	receive(t, ch)

	src.SetLanguage(dobhasi.Bengali)
	if v := receive(t, ch); v != "bn:Save" {
		t.Errorf("after switching to Bengali got %q", v)
	}

	src.SetLanguage(dobhasi.English)
	if v := receive(t, ch); v != "Save" {
		t.Errorf("after switching back got %q", v)
	}
}

func TestText_StaleResultDiscarded(t *testing.T) {
	src := newFakeSource(dobhasi.Bengali)
	src.gate = make(chan struct{})
	src.ignoreCtx = true
	ch, onChange := collect[string]()

	txt := NewText(src, "A", onChange)
	defer txt.Close()

	// Supersede the in-flight request, then let both finish.
	txt.SetText("B")
	close(src.gate)
	txt.Wait()

	if v := receive(t, ch); v != "bn:B" {
		t.Errorf("first committed value = %q, want bn:B", v)
	}
	select {
	case v := <-ch:
		t.Errorf("stale value %q was committed", v)
	default:
	}

	if v, _ := txt.Value(); v != "bn:B" {
		t.Errorf("Value() = %q", v)
	}
}

func TestText_SetTextUnchanged(t *testing.T) {
	src := newFakeSource(dobhasi.Bengali)

	txt := NewText(src, "A", nil)
	defer txt.Close()
	txt.Wait()

	txt.SetText("A")
	txt.Wait()

	if n := len(src.Batches()); n != 1 {
		t.Errorf("unchanged text should not re-translate, got %d batches", n)
	}
}

func TestText_CloseDiscardsPending(t *testing.T) {
	src := newFakeSource(dobhasi.Bengali)
	src.gate = make(chan struct{})
	ch, onChange := collect[string]()

	txt := NewText(src, "Hello", onChange)
	txt.Close()
	close(src.gate)

	select {
	case v := <-ch:
		t.Errorf("value %q committed after Close", v)
	default:
	}

	// Language changes after Close are ignored.
	src.SetLanguage(dobhasi.English)
	if v, state := txt.Value(); v != "Hello" || state != Pending {
		t.Errorf("Value() after Close = %q, %v", v, state)
	}
}

func TestText_BlankNeverTranslated(t *testing.T) {
	src := newFakeSource(dobhasi.Bengali)

	txt := NewText(src, "   ", nil)
	defer txt.Close()

	if v, state := txt.Value(); v != "   " || state != Idle {
		t.Errorf("Value() = %q, %v", v, state)
	}
	if len(src.Batches()) != 0 {
		t.Error("blank text should not be sent")
	}
}

func TestText_WithLanguage(t *testing.T) {
	src := newFakeSource(dobhasi.English)
	ch, onChange := collect[string]()

	txt := NewText(src, "বার্ষিক ক্রীড়া", onChange, WithLanguage(dobhasi.English))
	defer txt.Close()

	if v := receive(t, ch); v != "en:বার্ষিক ক্রীড়া" {
		t.Errorf("pinned English should still translate, got %q", v)
	}

	src.mu.Lock()
	override := src.overrides[0]
	src.mu.Unlock()
	if len(override) != 1 || override[0] != dobhasi.English {
		t.Errorf("override = %v, want [en]", override)
	}
}

func TestTexts_OneBatchPerChange(t *testing.T) {
	src := newFakeSource(dobhasi.Bengali)
	ch, onChange := collect[[]string]()

	texts := NewTexts(src, []string{"Save", "", "Cancel"}, onChange)
	defer texts.Close()

	got := receive(t, ch)
	want := []string{"bn:Save", "", "bn:Cancel"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Same contents in a new slice: no new batch.
	texts.SetTexts([]string{"Save", "", "Cancel"})
	texts.Wait()
	if n := len(src.Batches()); n != 1 {
		t.Errorf("same list should not re-translate, got %d batches", n)
	}

	texts.SetTexts([]string{"Save"})
	if got := receive(t, ch); len(got) != 1 || got[0] != "bn:Save" {
		t.Errorf("after SetTexts got %v", got)
	}
	if n := len(src.Batches()); n != 2 {
		t.Errorf("expected 2 batches, got %d", n)
	}
}

func TestTexts_ValuesIsCopy(t *testing.T) {
	src := newFakeSource(dobhasi.English)

	texts := NewTexts(src, []string{"a", "b"}, nil)
	defer texts.Close()

	v, _ := texts.Values()
	v[0] = "mutated"

	again, _ := texts.Values()
	if again[0] != "a" {
		t.Error("Values should return a copy")
	}
}

func TestRecords_ScenarioNullField(t *testing.T) {
	src := newFakeSource(dobhasi.Bengali)
	ch, onChange := collect[[]map[string]any]()

	items := []map[string]any{{"id": 1, "title": "A", "note": nil}}
	recs := NewRecords(src, items, []string{"title", "note"}, onChange)
	defer recs.Close()

	got := receive(t, ch)

	batches := src.Batches()
	if len(batches) != 1 || len(batches[0]) != 1 || batches[0][0] != "A" {
		t.Fatalf("expected a single batch [A], got %v", batches)
	}
	if got[0]["title"] != "bn:A" {
		t.Errorf("title = %v", got[0]["title"])
	}
	if v, ok := got[0]["note"]; !ok || v != nil {
		t.Errorf("note = %v, %v; want nil kept", v, ok)
	}
	if got[0]["id"] != 1 {
		t.Errorf("id = %v", got[0]["id"])
	}
	if items[0]["title"] != "A" {
		t.Error("input record was modified")
	}
}

func TestRecords_SetItems(t *testing.T) {
	src := newFakeSource(dobhasi.Bengali)
	ch, onChange := collect[[]map[string]any]()

	recs := NewRecords(src, nil, []string{"title"}, onChange)
	defer recs.Close()
	if got := receive(t, ch); len(got) != 0 {
		t.Errorf("empty records should commit immediately, got %v", got)
	}

	recs.SetItems([]map[string]any{{"title": "Holiday"}, {"title": "Exam"}}, []string{"title"})
	got := receive(t, ch)
	if got[0]["title"] != "bn:Holiday" || got[1]["title"] != "bn:Exam" {
		t.Errorf("got %v", got)
	}
	if _, state := recs.Values(); state != Idle {
		t.Errorf("state = %v", state)
	}
}

func TestState_String(t *testing.T) {
	if Idle.String() != "idle" || Pending.String() != "pending" {
		t.Errorf("unexpected state names %q %q", Idle, Pending)
	}
}

func TestText_WithTranslator(t *testing.T) {
	mock := provider.NewMockProvider()
	gw := dobhasi.NewGateway(mock, dobhasi.WithRateLimit(dobhasi.RateLimitConfig{MinInterval: time.Millisecond}))
	tr := dobhasi.NewTranslator(gw)
	defer tr.Close()

	ch, onChange := collect[[]string]()
	texts := NewTexts(tr, []string{"Save", "Cancel"}, onChange)
	defer texts.Close()
	receive(t, ch)

	if err := tr.SetLanguage(context.Background(), dobhasi.Bengali); err != nil {
		t.Fatalf("SetLanguage failed: %v", err)
	}

	got := receive(t, ch)
	if got[0] != "সংরক্ষণ" || got[1] != "বাতিল" {
		t.Errorf("got %v", got)
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 provider call, got %d", mock.CallCount())
	}
}
