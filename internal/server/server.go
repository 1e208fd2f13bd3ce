package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/franckalain/nutriscan/internal/database"
	"github.com/franckalain/nutriscan/internal/metrics"
	"github.com/franckalain/nutriscan/internal/scanner"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, this should be more restrictive
	},
}

type Server struct {
	db        database.DB
	lookup    scanner.Lookup
	staticDir string
	publicURL string
	sessions  sync.Map
	debug     bool

	// ctx bounds every session controller
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server. db may be nil, in which case scans are not journaled.
func New(db database.DB, lookup scanner.Lookup, staticDir, publicURL string, debug bool) *Server {
	if debug {
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
		log.Println("Debug logging enabled")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		db:        db,
		lookup:    lookup,
		staticDir: staticDir,
		publicURL: publicURL,
		debug:     debug,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Router builds the HTTP routes
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/api/scans", s.handleRecentScans).Methods("GET")
	r.HandleFunc("/api/scans/{id}", s.handleScan).Methods("GET")
	r.HandleFunc("/api/qr", s.handleQRCode).Methods("GET")

	// Serve static files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
	return r
}

// Start serves on port until SIGINT/SIGTERM, then shuts down.
func (s *Server) Start(port string) error {
	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %s\n", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.Close()
		return fmt.Errorf("listen: %w", err)
	case <-sigChan:
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)
	s.Close()
	return err
}

// Close stops every session controller and waits for them
func (s *Server) Close() {
	s.cancel()
	s.sessions.Range(func(_, value any) bool {
		value.(*session).conn.Close()
		return true
	})
	s.wg.Wait()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	defer conn.Close()

	sess := &session{id: uuid.New().String(), conn: conn}
	opts := []scanner.Option{scanner.WithSessionID(sess.id)}
	if s.db != nil {
		opts = append(opts, scanner.WithJournal(s.db))
	}
	sess.ctrl = scanner.New(sess, s.lookup, sess, opts...)

	s.sessions.Store(sess.id, sess)
	defer s.sessions.Delete(sess.id)
	metrics.Sessions.Inc()
	defer metrics.Sessions.Dec()

	ctx, cancel := context.WithCancel(s.ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = sess.ctrl.Run(ctx)
	}()
	defer cancel()

	log.Printf("[%s] Session opened", sess.id)
	sess.ctrl.Start()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.debug {
				log.Printf("[%s] Error reading message: %v", sess.id, err)
			}
			break
		}

		// Parse message
		var msg map[string]any
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Println("Error parsing message:", err)
			sess.sendError("Invalid message format")
			continue
		}

		sess.handleMessage(msg)
	}
	log.Printf("[%s] Session closed", sess.id)
}

func (s *Server) handleRecentScans(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.db == nil {
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	scans, err := s.db.GetRecentScans(r.Context(), limit)
	if err != nil {
		log.Printf("Error retrieving scans: %v", err)
		http.Error(w, "failed to retrieve scans", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"items": scans})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "scan not found", http.StatusNotFound)
		return
	}

	scan, err := s.db.GetScan(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		log.Printf("Error retrieving scan: %v", err)
		http.Error(w, "failed to retrieve scan", http.StatusInternalServerError)
		return
	}
	if scan == nil {
		http.Error(w, "scan not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scan)
}

// handleQRCode renders the page URL as a QR code so a phone can open the scanner
func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request) {
	target := s.publicURL
	if target == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		target = scheme + "://" + r.Host + "/"
	}

	qr, err := qrcode.New(target, qrcode.Medium)
	if err != nil {
		log.Printf("Error generating QR code: %v", err)
		http.Error(w, "failed to generate QR code", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, qr.Image(256)); err != nil {
		log.Printf("Error encoding QR code: %v", err)
		http.Error(w, "failed to encode QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
