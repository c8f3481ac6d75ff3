package testfixtures

import (
	"sync"
	"testing"
)

func TestIDGenerator_Sequence(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("token")
	if gen.Last() != "" || gen.Peek() != "token-1" {
		t.Fatalf("fresh generator: last=%q peek=%q", gen.Last(), gen.Peek())
	}
	if a, b := gen.Next(), gen.Next(); a != "token-1" || b != "token-2" {
		t.Fatalf("unexpected sequence %q, %q", a, b)
	}
	if gen.Last() != "token-2" || gen.Peek() != "token-3" {
		t.Fatalf("after two: last=%q peek=%q", gen.Last(), gen.Peek())
	}

	if got := NewIDGenerator("").Next(); got != "id-1" {
		t.Fatalf("default prefix gave %q", got)
	}
	var nilGen *IDGenerator
	if got := nilGen.NextFunc()(); got != "" {
		t.Fatalf("nil generator gave %q", got)
	}
}

func TestIDGenerator_ConcurrentUniqueness(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("id")
	const workers, each = 8, 50
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*each)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				id := gen.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*each {
		t.Fatalf("expected %d unique ids, got %d", workers*each, len(seen))
	}
	if gen.Last() != "id-400" {
		t.Fatalf("Last = %q", gen.Last())
	}
}
