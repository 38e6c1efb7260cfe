package events

import (
	"sync"
	"testing"
)

func TestEmit_DeliversInOrder(t *testing.T) {
	b := NewBus()
	var got []string
	b.Subscribe(CompletionsChanged, func(p any) { got = append(got, "a:"+p.(string)) })
	b.Subscribe(CompletionsChanged, func(p any) { got = append(got, "b:"+p.(string)) })
	b.Subscribe("other", func(any) { t.Error("wrong event delivered") })

	b.Emit(CompletionsChanged, "h1")
	if len(got) != 2 || got[0] != "a:h1" || got[1] != "b:h1" {
		t.Fatalf("got %v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()
	calls := 0
	unsub := b.Subscribe(CompletionsChanged, func(any) { calls++ })
	b.Emit(CompletionsChanged, nil)
	unsub()
	unsub()
	b.Emit(CompletionsChanged, nil)
	if calls != 1 {
		t.Fatalf("calls=%d want 1", calls)
	}
	if n := b.Subscribers(CompletionsChanged); n != 0 {
		t.Fatalf("subscribers=%d want 0", n)
	}
}

func TestUnsubscribe_DuringEmit(t *testing.T) {
	b := NewBus()
	calls := 0
	var unsub func()
	unsub = b.Subscribe(CompletionsChanged, func(any) { calls++; unsub() })
	b.Subscribe(CompletionsChanged, func(any) { calls++ })
	b.Emit(CompletionsChanged, nil)
	b.Emit(CompletionsChanged, nil)
	if calls != 3 {
		t.Fatalf("calls=%d want 3", calls)
	}
}

func TestEmit_RecoversPanics(t *testing.T) {
	b := NewBus()
	reached := false
	b.Subscribe(CompletionsChanged, func(any) { panic("boom") })
	b.Subscribe(CompletionsChanged, func(any) { reached = true })
	b.Emit(CompletionsChanged, nil)
	if !reached {
		t.Fatal("second handler not called after panic")
	}
}

func TestBus_Concurrent(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	n := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := b.Subscribe(CompletionsChanged, func(any) { mu.Lock(); n++; mu.Unlock() })
			b.Emit(CompletionsChanged, nil)
			unsub()
		}()
	}
	wg.Wait()
	if b.Subscribers(CompletionsChanged) != 0 {
		t.Fatal("subscriptions leaked")
	}
	if n < 20 {
		t.Fatalf("n=%d want >= 20", n)
	}
}
