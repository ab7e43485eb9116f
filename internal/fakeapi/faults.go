package fakeapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/storefront/pkg/httpx"
	"github.com/aussiebroadwan/storefront/pkg/slogx"
)

// Routes are named by their mux pattern, e.g. "POST /auth/refresh".
type faults struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string][]int
	delay map[string]time.Duration
}

func newFaults() *faults {
	return &faults{
		calls: make(map[string]int),
		fail:  make(map[string][]int),
		delay: make(map[string]time.Duration),
	}
}

func (f *faults) middleware(route string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.calls[route]++
			d := f.delay[route]
			status := 0
			if q := f.fail[route]; len(q) > 0 {
				status, f.fail[route] = q[0], q[1:]
			}
			f.mu.Unlock()

			if d > 0 {
				t := time.NewTimer(d)
				select {
				case <-t.C:
				case <-r.Context().Done():
					t.Stop()
					return
				}
			}

			if status != 0 {
				slogx.FromContext(r.Context()).Debug("injected failure", "route", route, "status", status)
				httpx.WriteError(w, status, "injected failure")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FailNext makes the next n requests to route fail with status.
func (s *Server) FailNext(route string, status, n int) {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	for range n {
		s.faults.fail[route] = append(s.faults.fail[route], status)
	}
}

// Delay holds every request to route for d before handling it. Zero removes
// the delay.
func (s *Server) Delay(route string, d time.Duration) {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	if d <= 0 {
		delete(s.faults.delay, route)
		return
	}
	s.faults.delay[route] = d
}

// Calls returns how many requests reached route, failed ones included.
func (s *Server) Calls(route string) int {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	return s.faults.calls[route]
}

// ResetCalls zeroes every call counter.
func (s *Server) ResetCalls() {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	clear(s.faults.calls)
}
