package http

import (
	"net/http"

	"rewind/internal/ai"
	"rewind/internal/analysis"
	"rewind/internal/auth"
	"rewind/internal/chat"
	"rewind/internal/config"
	"rewind/internal/http/handler"
	mw "rewind/internal/http/middleware"
	"rewind/internal/jobs"
	"rewind/internal/memory"
	"rewind/internal/timeline"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewRouter(cfg config.Config, db *gorm.DB, jwtSvc *auth.JWT, completer ai.Completer, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: db, JWT: jwtSvc}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)
	r.With(auth.RequireAuth(jwtSvc)).Get("/auth/me", ah.Me)

	memoryH := &handler.MemoryHandler{Svc: &memory.Service{DB: db}}
	r.Route("/memory", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/", memoryH.Create)
		r.Get("/", memoryH.List)
		r.Get("/search", memoryH.Search)
		r.Get("/{id}", memoryH.Get)
		r.Put("/{id}", memoryH.Update)
		r.Delete("/{id}", memoryH.Delete)
	})

	chatSvc := &chat.Service{DB: db, Completer: completer, Log: log}
	chatH := &handler.ChatHandler{Svc: chatSvc, DB: db}
	r.Route("/chat", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/start", chatH.Start)
		r.Get("/", chatH.List)
		r.Post("/{id}/message", chatH.SendMessage)
		r.Get("/{id}", chatH.Get)
	})

	timelineSvc := &timeline.Service{
		Store:     &timeline.GormStore{DB: db},
		Completer: completer,
		Dedup:     &jobs.Repo{DB: db},
		Log:       log,
	}
	timelineH := &handler.TimelineHandler{Svc: timelineSvc}
	r.Route("/timeline", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/generate", timelineH.Generate)
		r.Get("/analysis/{memoryId}", timelineH.History)
		r.Delete("/cleanup/{memoryId}", timelineH.Cleanup)
	})

	analysisH := &handler.AnalysisHandler{Svc: &analysis.Service{DB: db}}
	r.Route("/analysis", func(r chi.Router) {
		r.Use(auth.RequireAuth(jwtSvc))

		r.Post("/generate", analysisH.Generate)
		r.Get("/", analysisH.List)
		r.Get("/{id}", analysisH.Get)
		r.Delete("/{id}", analysisH.Delete)
	})

	return r
}
