package server

import (
	"fmt"
	"sync"
	"testing"
)

// TestRegistryStoreResolve tests basic store and resolve
func TestRegistryStoreResolve(t *testing.T) {
	r := NewObjectRegistry()

	id := r.Store("hello")
	if id != 1 {
		t.Errorf("First id = %d, expected 1", id)
	}

	obj, err := r.Resolve(id)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if obj != "hello" {
		t.Errorf("Resolve = %v, expected hello", obj)
	}

	// Id 0 is never issued, resolving it always fails
	if _, err := r.Resolve(0); err == nil {
		t.Errorf("Expected error for id 0, got none")
	}
	if _, err := r.Resolve(99); err == nil {
		t.Errorf("Expected error for unknown id, got none")
	}
}

// TestRegistryIdsAreMonotonic tests that ids increase and are never reused
func TestRegistryIdsAreMonotonic(t *testing.T) {
	r := NewObjectRegistry()

	first := r.Store("a")
	second := r.Store("b")
	if second <= first {
		t.Errorf("Expected increasing ids, got %d then %d", first, second)
	}

	// The same object still gets a fresh id
	third := r.Store("a")
	if third <= second {
		t.Errorf("Expected a fresh id for a repeated object, got %d", third)
	}

	// Released ids are not reused
	if err := r.Release(second); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	fourth := r.Store("c")
	if fourth <= third {
		t.Errorf("Expected id beyond %d after release, got %d", third, fourth)
	}
}

// TestRegistryRelease tests release semantics
func TestRegistryRelease(t *testing.T) {
	r := NewObjectRegistry()
	id := r.Store("x")

	if err := r.Release(id); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if _, err := r.Resolve(id); err == nil {
		t.Errorf("Expected error resolving released id, got none")
	}

	// A double release is an error
	if err := r.Release(id); err == nil {
		t.Errorf("Expected error for double release, got none")
	}

	if r.Size() != 0 {
		t.Errorf("Size = %d, expected 0", r.Size())
	}
}

// TestRegistryClear tests dropping all references at once
func TestRegistryClear(t *testing.T) {
	r := NewObjectRegistry()
	for i := 0; i < 10; i++ {
		r.Store(i)
	}
	if r.Size() != 10 {
		t.Fatalf("Size = %d, expected 10", r.Size())
	}

	r.Clear()
	if r.Size() != 0 {
		t.Errorf("Size after Clear = %d, expected 0", r.Size())
	}

	// Ids keep increasing after a clear
	if id := r.Store("y"); id != 11 {
		t.Errorf("Id after Clear = %d, expected 11", id)
	}
}

// TestRegistryConcurrentStore tests that concurrent stores hand out unique ids
func TestRegistryConcurrentStore(t *testing.T) {
	r := NewObjectRegistry()

	const goroutines = 8
	const perGoroutine = 100

	var wg sync.WaitGroup
	ids := make([][]uint64, goroutines)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ids[g] = make([]uint64, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				ids[g][i] = r.Store(fmt.Sprintf("%d-%d", g, i))
			}
		}(g)
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, batch := range ids {
		for _, id := range batch {
			if id == 0 {
				t.Fatalf("Registry issued id 0")
			}
			if seen[id] {
				t.Fatalf("Registry issued duplicate id %d", id)
			}
			seen[id] = true
		}
	}

	if r.Size() != goroutines*perGoroutine {
		t.Errorf("Size = %d, expected %d", r.Size(), goroutines*perGoroutine)
	}
}
