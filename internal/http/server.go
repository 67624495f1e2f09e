package http

import (
	"container/list"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gabrielarrudexx/YBYOCA/internal/auth"
	"github.com/gabrielarrudexx/YBYOCA/internal/report/sheets"
	"github.com/gabrielarrudexx/YBYOCA/internal/services"
	"github.com/gabrielarrudexx/YBYOCA/internal/storage"
)

// LRU cache with TTL and size-based eviction. Rendered report documents
// are cached here and invalidated on every ledger mutation.
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *lruCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

func (c *lruCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries.
func (c *lruCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

type Server struct {
	http.Server

	repo     *storage.SQLiteRepository
	ledger   *services.LedgerService
	projects *services.ProjectService
	reports  *services.ReportService
	exporter sheets.ReportWriter
	auth     *auth.Authenticator

	uploadDir   string
	rateLimiter *rateLimiter

	// Rendered report documents keyed by project ID.
	reportCache *lruCache[[]byte]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Simple in-memory rate limiter for mutating requests.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}

// Deps carries the server's collaborators. Exporter may be nil when no
// spreadsheet is configured.
type Deps struct {
	Repo      *storage.SQLiteRepository
	Ledger    *services.LedgerService
	Projects  *services.ProjectService
	Reports   *services.ReportService
	Exporter  sheets.ReportWriter
	Auth      *auth.Authenticator
	UploadDir string
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		repo:             deps.Repo,
		ledger:           deps.Ledger,
		projects:         deps.Projects,
		reports:          deps.Reports,
		exporter:         deps.Exporter,
		auth:             deps.Auth,
		uploadDir:        deps.UploadDir,
		rateLimiter:      newRateLimiter(),
		reportCache:      newLRUCache[[]byte](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /token", s.withRequestLogging(s.handleToken))

	mux.HandleFunc("POST /users", s.protected(s.requireArchitect(s.handleCreateUser)))
	mux.HandleFunc("GET /users", s.protected(s.requireArchitect(s.handleListUsers)))
	mux.HandleFunc("GET /users/me", s.protected(s.handleCurrentUser))

	mux.HandleFunc("POST /projects", s.protected(s.requireArchitect(s.handleCreateProject)))
	mux.HandleFunc("GET /projects", s.protected(s.handleListProjects))
	mux.HandleFunc("GET /projects/{id}", s.protected(s.handleGetProject))
	mux.HandleFunc("POST /projects/{id}/finalize", s.protected(s.requireArchitect(s.handleFinalizeProject)))
	mux.HandleFunc("GET /projects/{id}/report", s.protected(s.handleProjectReport))
	mux.HandleFunc("POST /projects/{id}/export", s.protected(s.requireArchitect(s.handleExportReport)))

	mux.HandleFunc("GET /projects/{id}/expenses", s.protected(s.handleListExpenses))
	mux.HandleFunc("POST /projects/{id}/expenses", s.protected(s.requireArchitect(s.handleCreateExpense)))
	mux.HandleFunc("DELETE /expenses/{id}", s.protected(s.handleRemoveExpense))

	mux.HandleFunc("GET /projects/{id}/phases", s.protected(s.handleListPhases))
	mux.HandleFunc("POST /projects/{id}/phases", s.protected(s.requireArchitect(s.handleCreatePhase)))
	mux.HandleFunc("PATCH /phases/{id}", s.protected(s.requireArchitect(s.handleUpdatePhase)))
	mux.HandleFunc("DELETE /phases/{id}", s.protected(s.requireArchitect(s.handleDeletePhase)))

	mux.HandleFunc("GET /projects/{id}/checklist", s.protected(s.handleListChecklist))
	mux.HandleFunc("POST /projects/{id}/checklist", s.protected(s.requireArchitect(s.handleCreateChecklistItem)))
	mux.HandleFunc("PATCH /checklist/{id}", s.protected(s.requireArchitect(s.handleUpdateChecklistItem)))
	mux.HandleFunc("POST /checklist/{id}/toggle", s.protected(s.handleToggleChecklistItem))
	mux.HandleFunc("DELETE /checklist/{id}", s.protected(s.requireArchitect(s.handleDeleteChecklistItem)))

	mux.HandleFunc("GET /projects/{id}/alerts", s.protected(s.handleListAlerts))

	// Expense photos
	if deps.UploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir))))
	}

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.reportCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		http.Error(w, "database not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
