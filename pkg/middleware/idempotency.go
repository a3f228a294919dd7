package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "clinic/pkg/errors"
	httputil "clinic/pkg/http"
)

const IdempotentReplayHeader = "Idempotent-Replayed"

// KeyState is the outcome of claiming an idempotency key.
type KeyState int

const (
	// KeyClaimed means the caller owns the key and must Complete or Abandon it.
	KeyClaimed KeyState = iota
	// KeyReplay means a finished response for the same request is stored.
	KeyReplay
	// KeyInFlight means another request with the key is still running.
	KeyInFlight
	// KeyMismatch means the key was already used with a different body.
	KeyMismatch
)

// IdempotencyStore remembers successful POST responses by key. A key is
// claimed before the handler runs so a retry racing the original request
// cannot book the same appointment twice.
type IdempotencyStore interface {
	Begin(key, fingerprint string) (*CachedResponse, KeyState)
	Complete(key string, response *CachedResponse)
	Abandon(key string)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

type idempotencyEntry struct {
	fingerprint string
	response    *CachedResponse // nil while the request is in flight
	expiresAt   time.Time
}

type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	ttl     time.Duration
	now     func() time.Time
	stopCh  chan struct{}
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     ttl,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go s.evictLoop()
	return s
}

func (s *InMemoryIdempotencyStore) Begin(key, fingerprint string) (*CachedResponse, KeyState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		switch {
		case e.fingerprint != fingerprint:
			return nil, KeyMismatch
		case e.response == nil:
			return nil, KeyInFlight
		default:
			return e.response, KeyReplay
		}
	}

	// In-flight claims expire like stored responses.
	s.entries[key] = &idempotencyEntry{fingerprint: fingerprint, expiresAt: now.Add(s.ttl)}
	return nil, KeyClaimed
}

func (s *InMemoryIdempotencyStore) Complete(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.response = response
		e.expiresAt = s.now().Add(s.ttl)
	}
}

func (s *InMemoryIdempotencyStore) Abandon(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *InMemoryIdempotencyStore) evictLoop() {
	interval := s.ttl
	if interval <= 0 || interval > time.Hour {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	close(s.stopCh)
}

// Idempotency replays the stored response when a POST is retried with the
// same key and body. Keys are scoped to method and path. Only 2xx responses
// are kept; a failed attempt frees the key for the next retry.
func Idempotency(store IdempotencyStore, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "Idempotency-Key"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(headerName))
			if key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				httputil.WriteError(w, apperrors.InvalidInput("failed to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scoped := r.Method + " " + r.URL.Path + " " + key
			cached, state := store.Begin(scoped, fingerprint(body))
			switch state {
			case KeyReplay:
				replay(w, cached)
				return
			case KeyInFlight:
				httputil.WriteError(w, apperrors.Conflict("A request with this idempotency key is still being processed"))
				return
			case KeyMismatch:
				httputil.WriteError(w, apperrors.InvalidInput("Idempotency key was already used with a different request body"))
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			completed := false
			defer func() {
				if !completed {
					store.Abandon(scoped)
				}
			}()

			next.ServeHTTP(capture, r)

			if status := capture.status(); status >= 200 && status < 300 {
				store.Complete(scoped, &CachedResponse{
					StatusCode: status,
					Headers:    w.Header().Clone(),
					Body:       capture.body.Bytes(),
				})
				completed = true
			}
		})
	}
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func replay(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(IdempotentReplayHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	if rc.statusCode == 0 {
		rc.statusCode = statusCode
	}
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if rc.statusCode == 0 {
		rc.statusCode = http.StatusOK
	}
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

func (rc *responseCapture) status() int {
	if rc.statusCode == 0 {
		return http.StatusOK
	}
	return rc.statusCode
}
