package server_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/go-ttstok/internal/server"
	"github.com/example/go-ttstok/internal/testutil"
)

// ---------------------------------------------------------------------------
// text size limit
// ---------------------------------------------------------------------------

func TestTokenize_OversizedTextRejectedAs413(t *testing.T) {
	h := newTestHandler(t, server.WithMaxTextBytes(10))

	rec := post(h, "/tokenize", fmt.Sprintf(`{"text":%q}`, strings.Repeat("a", 11)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}
}

func TestTokenize_TextAtExactLimitIsAccepted(t *testing.T) {
	h := newTestHandler(t, server.WithMaxTextBytes(10))

	rec := post(h, "/tokenize", fmt.Sprintf(`{"text":%q}`, strings.Repeat("a", 10)))
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// worker pool / concurrency throttling
// ---------------------------------------------------------------------------

func TestTokenize_ConcurrencyThrottling(t *testing.T) {
	const (
		workers       = 2
		totalRequests = 5
	)

	var (
		mu         sync.Mutex
		peak       int
		current    int32
		releaseAll = make(chan struct{})
	)

	counting := func(s string) (string, error) {
		n := int(atomic.AddInt32(&current, 1))
		defer atomic.AddInt32(&current, -1)

		mu.Lock()
		peak = max(peak, n)
		mu.Unlock()

		<-releaseAll

		return s, nil
	}

	h := server.NewHandler(newTokenizer(t, counting), server.WithWorkers(workers), server.WithLogger(testutil.DiscardLogger()))

	var wg sync.WaitGroup

	codes := make([]int, totalRequests)
	for i := range totalRequests {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()

			codes[idx] = post(h, "/tokenize", `{"text":"Hi."}`).Code
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(releaseAll)
	wg.Wait()

	mu.Lock()
	got := peak
	mu.Unlock()

	if got > workers {
		t.Errorf("peak concurrency %d exceeded worker limit %d", got, workers)
	}

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("request %d: want 200, got %d", i, code)
		}
	}
}

func TestTokenize_WaiterCancelledWhileThrottled(t *testing.T) {
	release := make(chan struct{})
	blocking := func(s string) (string, error) {
		<-release
		return s, nil
	}

	h := server.NewHandler(newTokenizer(t, blocking), server.WithWorkers(1), server.WithLogger(testutil.DiscardLogger()))

	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = post(h, "/tokenize", `{"text":"First."}`)
	}()

	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	rec := httptestPostWithContext(ctx, h, "/tokenize", `{"text":"Second."}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503 when waiter context cancelled, got %d", rec.Code)
	}

	close(release)
	<-done
}
