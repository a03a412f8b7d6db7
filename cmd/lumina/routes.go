// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/lumina/internal/cache"
	"github.com/olegiv/lumina/internal/config"
	"github.com/olegiv/lumina/internal/content"
	"github.com/olegiv/lumina/internal/handler"
	"github.com/olegiv/lumina/internal/imaging"
	"github.com/olegiv/lumina/internal/middleware"
	"github.com/olegiv/lumina/internal/service"
	"github.com/olegiv/lumina/internal/store"
	"github.com/olegiv/lumina/internal/version"
)

// uploadsPrefix is the URL path uploaded files are served under.
const uploadsPrefix = "/uploads"

// Cache lifetimes in seconds.
const uploadsMaxAge = 604800 // 1 week

type routerDeps struct {
	cfg             *config.Config
	version         *version.Info
	db              *sql.DB
	sessions        *scs.SessionManager
	cache           cache.Cacher
	content         *content.Store
	posts           *service.PostService
	engagement      *service.EngagementService
	accounts        *service.AccountService
	newsletter      *service.NewsletterService
	images          *imaging.Processor
	loginProtection *middleware.LoginProtection
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(d.cfg.IsDevelopment())))

	health := handler.NewHealthHandler(handler.HealthConfig{
		DB:         d.db,
		Content:    d.content,
		Cache:      d.cache,
		Events:     store.New(d.db),
		UploadsDir: d.cfg.UploadsDir,
		Version:    d.version.Version,
		Detailed:   d.cfg.IsDevelopment(),
	})
	r.Get("/health", health.Health)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	uploads := middleware.UploadCache(uploadsMaxAge)(http.StripPrefix(uploadsPrefix+"/", http.FileServer(http.Dir(d.cfg.UploadsDir))))
	r.Handle(uploadsPrefix+"/*", uploads)

	r.Route("/api", func(r chi.Router) {
		registerAPIRoutes(r, d)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteAPIError(w, http.StatusNotFound, "not_found", "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	return r
}

func registerAPIRoutes(r chi.Router, d routerDeps) {
	csrfConfig := middleware.DefaultCSRFConfig([]byte(d.cfg.SessionSecret), d.cfg.IsDevelopment(), d.cfg.CORSOrigins)

	r.Use(middleware.CORS(d.cfg.CORSOrigins))
	r.Use(middleware.NewGlobalRateLimiter(20, 40).Middleware())
	d.sessions.ErrorFunc = middleware.SessionError
	r.Use(d.sessions.LoadAndSave)
	r.Use(middleware.LoadViewer(d.sessions, d.accounts))
	// View beacons may arrive cross-site
	r.Use(middleware.SkipCSRF("/api/posts/track-view"))
	r.Use(middleware.CSRF(csrfConfig))

	posts := handler.NewPostsHandler(d.posts)
	engagement := handler.NewEngagementHandler(d.engagement)
	accounts := handler.NewAccountsHandler(d.accounts, d.sessions, d.loginProtection)
	newsletter := handler.NewNewsletterHandler(d.newsletter)
	uploads := handler.NewUploadsHandler(d.images)

	// Public
	r.Get("/posts", posts.List)
	r.Get("/posts/featured", posts.Featured)
	r.Get("/posts/trending", posts.Trending)
	r.Get("/posts/{id}", posts.Get)
	r.Get("/sections/{section}", posts.Section)
	r.Post("/posts/{id}/clap", engagement.Clap)
	r.Post("/posts/track-view", engagement.TrackView)
	r.Get("/profile/{id}", accounts.PublicProfile)
	r.Get("/session", accounts.Session)
	r.Post("/newsletter/subscribe", newsletter.Subscribe)

	// Auth endpoints share the sign-in IP limiter
	r.Group(func(r chi.Router) {
		r.Use(d.loginProtection.Middleware())
		r.Post("/register", accounts.Register)
		r.Post("/signin", accounts.SignIn)
	})
	r.Post("/signout", accounts.SignOut)

	// Signed-in users
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/posts/create", posts.Create)
		r.Delete("/posts/{id}", posts.Delete)
		r.Get("/author/stats", posts.AuthorStats)
		r.Get("/bookmarks", engagement.Bookmarks)
		r.Post("/bookmarks/toggle", engagement.ToggleBookmark)
		r.Post("/users/follow", engagement.ToggleFollow)
		r.Post("/comments/create", engagement.CreateComment)
		r.Get("/profile", accounts.Profile)
		r.Put("/profile", accounts.UpdateProfile)
		r.Post("/uploads/{kind}", uploads.Upload)
	})
}
