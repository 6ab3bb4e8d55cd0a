package middleware

import (
	"net/http"
	"sync"
)

// MsgSubmissionPending is shown when a form is submitted again before the first submission returns.
const MsgSubmissionPending = "Une soumission est déjà en cours"

// InFlight tracks form submissions that are still being processed.
type InFlight struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

// NewInFlight creates an empty tracker.
func NewInFlight() *InFlight {
	return &InFlight{pending: make(map[string]struct{})}
}

// TryAcquire marks key as pending.
// POST: ok is false if key was already pending; otherwise release must be called exactly once
func (f *InFlight) TryAcquire(key string) (release func(), ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.pending[key]; busy {
		return nil, false
	}
	f.pending[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.pending, key)
			f.mu.Unlock()
		})
	}, true
}

// SingleSubmit returns middleware that refuses a POST while the same browser
// has another POST to the same path in progress.
// PRE: Runs inside ClientID
func SingleSubmit(f *InFlight) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			key := ClientIDFromContext(r.Context()) + " " + r.URL.Path
			release, ok := f.TryAcquire(key)
			if !ok {
				http.Error(w, MsgSubmissionPending, http.StatusConflict)
				return
			}
			defer release()
			next.ServeHTTP(w, r)
		})
	}
}
