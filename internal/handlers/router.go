package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pliu/newsportal/internal/auth"
	"github.com/pliu/newsportal/internal/chat"
	"github.com/pliu/newsportal/internal/comments"
	"github.com/pliu/newsportal/internal/middleware"
	"github.com/pliu/newsportal/internal/news"
	"github.com/pliu/newsportal/internal/session"
	"github.com/pliu/newsportal/internal/ws"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Deps struct {
	Signer   *auth.Signer
	Sessions *session.Service
	Chat     *chat.Service
	Hub      *ws.Hub
	Catalog  *news.Catalog
	Comments *comments.Registry
	Log      *zerolog.Logger

	// Feeds are the URLs POST /api/news/import may fetch.
	Feeds []string

	// StaticDir is served at / when set.
	StaticDir string
}

func NewRouter(d Deps) *mux.Router {
	authHandler := &AuthHandler{Sessions: d.Sessions, Log: d.Log}
	chatHandler := &ChatHandler{Chat: d.Chat, Hub: d.Hub, Log: d.Log}
	newsHandler := &NewsHandler{Catalog: d.Catalog, Sessions: d.Sessions, Comments: d.Comments, Log: d.Log, Feeds: d.Feeds}

	r := mux.NewRouter()
	r.Use(middleware.Logging(d.Log))

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	profiled := r.NewRoute().Subrouter()
	profiled.Use(middleware.Profile(d.Signer, d.Log))

	api := profiled.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	api.HandleFunc("/profile", authHandler.Profile).Methods("GET")
	api.HandleFunc("/profile", authHandler.UpdateProfile).Methods("PUT")

	api.HandleFunc("/saved", newsHandler.Saved).Methods("GET")
	api.HandleFunc("/saved/{id:[0-9]+}", newsHandler.ToggleSaved).Methods("POST")
	api.HandleFunc("/saved/{id:[0-9]+}", newsHandler.RemoveSaved).Methods("DELETE")

	api.HandleFunc("/chat/messages", chatHandler.GetMessages).Methods("GET")
	api.HandleFunc("/chat/messages", chatHandler.SendMessage).Methods("POST")

	api.HandleFunc("/news", newsHandler.List).Methods("GET")
	api.HandleFunc("/news/import", newsHandler.Import).Methods("POST")
	api.HandleFunc("/news/{id:[0-9]+}", newsHandler.Get).Methods("GET")
	api.HandleFunc("/news/{id:[0-9]+}/comments", newsHandler.ListComments).Methods("GET")
	api.HandleFunc("/news/{id:[0-9]+}/comments", newsHandler.AddComment).Methods("POST")
	api.HandleFunc("/news/{id:[0-9]+}/comments", newsHandler.ResetComments).Methods("DELETE")
	api.HandleFunc("/news/{id:[0-9]+}/comments/{commentID:[0-9]+}/like", newsHandler.LikeComment).Methods("POST")

	profiled.HandleFunc("/ws", chatHandler.ServeWs).Methods("GET")

	if d.StaticDir != "" {
		profiled.PathPrefix("/").Handler(http.FileServer(http.Dir(d.StaticDir)))
	}
	return r
}
