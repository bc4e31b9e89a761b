// Package httpapi exposes the generator as a remote front panel over HTTP.
//
//	GET  /wave     current waveform {"freq":100,"amp":20,"shape":"sine"}
//	POST /wave     replace the waveform (same body)
//	GET  /display  the two panel lines
//	POST /key      {"key":"5"} press one keypad key
//	POST /touch    {"pad":"left"} tap one touch pad
//	GET  /status   pipeline counters
//
// The panel routes exist only when a panel is attached. Writes share one
// rate limiter and get 429 when it is exhausted.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"golang.org/x/time/rate"

	"github.com/cbegin/funcgen-go/internal/panel"
	"github.com/cbegin/funcgen-go/internal/wave"
)

// Waveform is the shared waveform the remote panel reads and writes.
type Waveform interface {
	Get() wave.Config
	Set(cfg wave.Config)
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPanel routes /display, /key and /touch to p, and makes POST /wave
// commit through it so the display follows remote writes.
func WithPanel(p *panel.Panel) Option {
	return func(s *Server) { s.panel = p }
}

// WithStatus sets the source of GET /status. The value is encoded as JSON.
func WithStatus(fn func() interface{}) Option {
	return func(s *Server) { s.status = fn }
}

// WithWriteLimit allows r writes per second with the given burst.
func WithWriteLimit(r rate.Limit, burst int) Option {
	return func(s *Server) { s.limiter = rate.NewLimiter(r, burst) }
}

type Server struct {
	wave    Waveform
	panel   *panel.Panel
	status  func() interface{}
	limiter *rate.Limiter
	log     *log.Logger
	router  chi.Router
}

type keyRequest struct {
	Key string `json:"key"`
}

type touchRequest struct {
	Pad string `json:"pad"`
}

type displayResponse struct {
	Lines  [2]string `json:"lines"`
	Cursor int       `json:"cursor"`
}

func New(w Waveform, opts ...Option) *Server {
	s := &Server{
		wave:    w,
		limiter: rate.NewLimiter(rate.Limit(20), 10),
		log:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.log, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/wave", s.getWave)
	r.Get("/status", s.getStatus)
	r.Group(func(r chi.Router) {
		r.Use(s.limitWrites)
		r.Post("/wave", s.setWave)
		if s.panel != nil {
			r.Post("/key", s.pressKey)
			r.Post("/touch", s.touch)
		}
	})
	if s.panel != nil {
		r.Get("/display", s.getDisplay)
	}
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Printf("httpapi: listening on %s", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("httpapi: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpapi: %w", err)
	}
	return nil
}

func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, "write rate exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getWave(w http.ResponseWriter, r *http.Request) {
	respond(w, s.wave.Get())
}

func (s *Server) setWave(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	cfg := s.wave.Get()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.panel != nil {
		s.panel.Commit(cfg)
	} else {
		s.wave.Set(cfg)
	}
	s.log.Printf("httpapi: waveform set to %s %d Hz amp %d", cfg.Shape, cfg.Freq, cfg.Amp)
	respond(w, cfg)
}

func (s *Server) getDisplay(w http.ResponseWriter, r *http.Request) {
	respond(w, s.display())
}

func (s *Server) display() displayResponse {
	return displayResponse{Lines: s.panel.Lines(), Cursor: s.panel.CursorColumn()}
}

func (s *Server) pressKey(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(req.Key) != 1 {
		http.Error(w, fmt.Sprintf("key %q: want exactly one character", req.Key), http.StatusBadRequest)
		return
	}
	k, _ := utf8.DecodeRuneInString(req.Key)
	s.panel.Press(panel.Key(k))
	respond(w, s.display())
}

// touch taps a pad: press and release in one request.
func (s *Server) touch(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req touchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pad, err := panel.ParsePad(req.Pad)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.panel.Touch(pad)
	s.panel.Release(pad)
	respond(w, s.display())
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		http.Error(w, "no status source", http.StatusNotFound)
		return
	}
	respond(w, s.status())
}

func respond(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
