package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/synapso/backend/internal/config"
	"github.com/synapso/backend/internal/database"
	"github.com/synapso/backend/internal/matching"
	"github.com/synapso/backend/internal/server"
	"github.com/teris-io/shortid"
)

type SynapsoApp struct {
	log             *log.Logger
	db              database.SynapsoRepository
	srv             *http.Server
	cs              *server.StudyServer
	matcher         *matching.Service
	signingKey      []byte
	allowedOrigins  []string
	validate        *validator.Validate
	generateShortId func() (string, error)
}

func NewSynapsoApp(mux *http.ServeMux, logger *log.Logger, cs *server.StudyServer, db database.SynapsoRepository, matcher *matching.Service, cfg *config.Config) *SynapsoApp {
	s := &SynapsoApp{
		log:             logger,
		db:              db,
		cs:              cs,
		matcher:         matcher,
		signingKey:      cfg.SigningKey,
		allowedOrigins:  cfg.AllowedOrigins,
		validate:        validator.New(),
		generateShortId: shortid.Generate,
	}

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("/api/profile", s.authMiddleware(s.profile))
	mux.HandleFunc("GET /api/users/stats", s.authMiddleware(s.userStats))
	mux.HandleFunc("GET /api/recommendations", s.authMiddleware(s.recommendations))
	mux.HandleFunc("POST /api/swipes", s.authMiddleware(s.createSwipe))
	mux.HandleFunc("GET /api/matches", s.authMiddleware(s.getMatches))
	mux.HandleFunc("GET /api/chats", s.authMiddleware(s.getChats))
	mux.HandleFunc("GET /api/messages", s.authMiddleware(s.getMessages))
	mux.HandleFunc("POST /api/messages", s.authMiddleware(s.createMessage))
	mux.HandleFunc("POST /api/rooms", s.authMiddleware(s.createRoom))
	mux.HandleFunc("GET /ws/studyroom/{room_id}/{username}", s.authMiddleware(s.serveWs))
	mux.HandleFunc("GET /api/healthz", s.healthz)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.srv = srv
	return s
}

func (s *SynapsoApp) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *SynapsoApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
