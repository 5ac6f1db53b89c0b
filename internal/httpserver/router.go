package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"flockd/internal/config"
	"flockd/internal/domain"
	"flockd/internal/security"
	"flockd/internal/service"
	"flockd/internal/store/memory"
	"flockd/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(
	cfg *config.Config,
	st *memory.Store,
	hub *ws.Hub,
	codec *security.TokenCodec,
	hasher *security.PasswordHasher,
	mailer domain.Mailer,
	cropper domain.ImageCropper,
	log *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Repositories
	users := st.Users()
	channels := st.Channels()
	messages := st.Messages()
	standups := st.Standups()

	// Services
	events := ws.NewEventBridge(hub)
	authSvc := service.NewAuthService(users, codec, hasher, mailer, log)
	userSvc := service.NewUserService(authSvc, users, cropper)
	chanSvc := service.NewChannelService(authSvc, users, channels)
	msgSvc := service.NewMessageService(authSvc, users, channels, messages, events, log)
	standupSvc := service.NewStandupService(authSvc, channels, standups, events, log)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"flockd API","version":"1.0.0"}`))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// No session required
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(authSvc))
			r.Post("/login", handleLogin(authSvc))
			r.Post("/passwordreset/request", handleResetRequest(authSvc))
			r.Post("/passwordreset/reset", handleResetPassword(authSvc))
		})

		r.Delete("/admin/clear", handleClear(st))

		// Session-scoped routes. The token middleware only extracts the raw
		// token; each service resolves and rejects it itself.
		r.Group(func(r chi.Router) {
			r.Use(TokenMiddleware)

			r.Post("/auth/logout", handleLogout(authSvc))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", handleListUsers(userSvc))
				r.Put("/profile/name", handleSetName(userSvc))
				r.Put("/profile/email", handleSetEmail(userSvc))
				r.Put("/profile/handle", handleSetHandle(userSvc))
				r.Post("/profile/photo", handleUploadPhoto(userSvc))
				r.Get("/{userID}", handleProfile(userSvc))
			})

			r.Post("/admin/permission", handleChangePermission(userSvc))

			r.Route("/channels", func(r chi.Router) {
				r.Post("/", handleCreateChannel(chanSvc))
				r.Get("/", handleListChannels(chanSvc))
				r.Get("/all", handleListAllChannels(chanSvc))
				r.Route("/{channelID}", func(r chi.Router) {
					r.Get("/", handleChannelDetails(chanSvc))
					r.Post("/join", handleJoin(chanSvc))
					r.Post("/leave", handleLeave(chanSvc))
					r.Post("/invite", handleInvite(chanSvc))
					r.Post("/addowner", handleAddOwner(chanSvc))
					r.Post("/removeowner", handleRemoveOwner(chanSvc))
					r.Get("/messages", handleMessagePage(msgSvc))
					r.Post("/messages", handleSendMessage(msgSvc))
					r.Post("/messages/later", handleSendLater(msgSvc))
					r.Get("/standup", handleStandupActive(standupSvc))
					r.Post("/standup/start", handleStandupStart(standupSvc))
					r.Post("/standup/send", handleStandupSend(standupSvc))
				})
			})

			r.Route("/messages", func(r chi.Router) {
				r.Post("/broadcast", handleBroadcast(msgSvc))
				r.Route("/{messageID}", func(r chi.Router) {
					r.Put("/", handleEditMessage(msgSvc))
					r.Delete("/", handleRemoveMessage(msgSvc))
					r.Post("/react", handleReact(msgSvc))
					r.Post("/unreact", handleUnreact(msgSvc))
					r.Post("/pin", handlePin(msgSvc))
					r.Post("/unpin", handleUnpin(msgSvc))
				})
			})

			r.Get("/search", handleSearch(msgSvc))
		})
	})

	// Avatar files
	r.Mount("/uploads", AvatarRoutes(cfg))

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(hub, authSvc, cfg.CORSOrigins, log))

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeErr maps domain errors to HTTP statuses.
func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
