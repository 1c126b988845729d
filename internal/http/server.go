// Package http exposes the ledger over a JSON REST API. Owner identity
// arrives pre-authenticated in the X-Owner-ID header; issuing that identity
// is someone else's problem.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tally/internal/amqp"
	"tally/internal/services"
	"tally/internal/storage"

	"github.com/gorilla/mux"
)

// BatchPublisher hands parsed statement batches to the import queue. Nil
// means no queue is configured and imports are staged synchronously.
type BatchPublisher interface {
	PublishImportBatch(ctx context.Context, msg *amqp.ImportBatchMessage) error
}

type Server struct {
	http.Server

	accounts     *services.AccountService
	categories   *services.CategoryService
	transactions *services.TransactionService
	transfers    *services.TransferService
	summaries    *services.SummaryService
	savings      *services.SavingsService
	budgets      *services.BudgetResolver
	reconciler   *services.ReconcileService

	publisher     BatchPublisher
	importMaxRows int

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer wires every route against one store.
func NewServer(addr string, store *storage.Store, publisher BatchPublisher, importMaxRows int) *Server {
	s := &Server{
		accounts:      services.NewAccountService(store),
		categories:    services.NewCategoryService(store),
		transactions:  services.NewTransactionService(store),
		transfers:     services.NewTransferService(store),
		summaries:     services.NewSummaryService(store),
		savings:       services.NewSavingsService(store),
		budgets:       services.NewBudgetResolver(store),
		reconciler:    services.NewReconcileService(store),
		publisher:     publisher,
		importMaxRows: importMaxRows,
		rateLimiter:   newRateLimiter(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.withRequestContext)

	api.HandleFunc("/onboard", s.handleOnboard).Methods(http.MethodPost)
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{id}/savings", s.handleSavingsLedger).Methods(http.MethodGet)

	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}", s.handleUpdateCategory).Methods(http.MethodPatch)
	api.HandleFunc("/categories/{id}", s.handleDeleteCategory).Methods(http.MethodDelete)
	api.HandleFunc("/categories/{id}/budget", s.handleResolveBudget).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id}/override", s.handleSetOverride).Methods(http.MethodPut)

	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.handleUpdateTransaction).Methods(http.MethodPatch)
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)
	api.HandleFunc("/transfers", s.handleListTransfers).Methods(http.MethodGet)

	api.HandleFunc("/fund", s.handleFundSavings).Methods(http.MethodPost)
	api.HandleFunc("/fund/month", s.handleFundMonth).Methods(http.MethodPost)

	api.HandleFunc("/imports", s.handleImportStatement).Methods(http.MethodPost)
	api.HandleFunc("/pending", s.handleListPending).Methods(http.MethodGet)
	api.HandleFunc("/pending/ignore", s.handleIgnorePending).Methods(http.MethodPost)
	api.HandleFunc("/pending/finalize", s.handleFinalizePending).Methods(http.MethodPost)

	s.Server = http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter's cleanup goroutine along with the HTTP
// server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestContext adds security headers, rate limiting on writes, a
// request ID, and start/finish logging.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	})
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
