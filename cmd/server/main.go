package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/vvasilje/murmur/internal/config"
	"github.com/vvasilje/murmur/internal/database"
	postgresrepo "github.com/vvasilje/murmur/internal/repository/postgres"
	"github.com/vvasilje/murmur/internal/service"
	"github.com/vvasilje/murmur/internal/session"
	"github.com/vvasilje/murmur/internal/transport/http/handlers"
	"github.com/vvasilje/murmur/internal/transport/http/middleware"
	"github.com/vvasilje/murmur/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal(err)
	}

	// Refresh sessions
	sessions, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatal(err)
	}
	defer sessions.Close()
	log.Println("Connected to redis")

	// Repositories
	profileRepo := postgresrepo.NewProfileRepo(pool)
	serverRepo := postgresrepo.NewServerRepo(pool)
	memberRepo := postgresrepo.NewMemberRepo(pool)
	channelRepo := postgresrepo.NewChannelRepo(pool)
	conversationRepo := postgresrepo.NewConversationRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	directRepo := postgresrepo.NewDirectMessageRepo(pool)

	// Services
	authService := service.NewAuthService(profileRepo, sessions, cfg.JWTSecret)
	serverService := service.NewServerService(serverRepo, memberRepo)
	channelService := service.NewChannelService(channelRepo, memberRepo, serverRepo)
	messageService := service.NewMessageService(messageRepo, channelRepo, memberRepo)
	conversationService := service.NewConversationService(conversationRepo, directRepo, memberRepo)

	// Real-time hub
	hub := ws.NewHub()
	notifier := ws.NewHubNotifier(hub)
	messageService.SetNotifier(notifier)
	conversationService.SetNotifier(notifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	serverHandler := handlers.NewServerHandler(serverService)
	channelHandler := handlers.NewChannelHandler(channelService)
	messageHandler := handlers.NewMessageHandler(messageService)
	conversationHandler := handlers.NewConversationHandler(conversationService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)

	// Protected - Servers & members
	mux.Handle("POST /api/v1/servers", auth(http.HandlerFunc(serverHandler.Create)))
	mux.Handle("GET /api/v1/servers", auth(http.HandlerFunc(serverHandler.List)))
	mux.Handle("GET /api/v1/servers/{id}", auth(http.HandlerFunc(serverHandler.Get)))
	mux.Handle("POST /api/v1/servers/join", auth(http.HandlerFunc(serverHandler.Join)))
	mux.Handle("POST /api/v1/servers/{id}/invite", auth(http.HandlerFunc(serverHandler.RegenerateInvite)))
	mux.Handle("GET /api/v1/servers/{id}/members", auth(http.HandlerFunc(serverHandler.ListMembers)))
	mux.Handle("DELETE /api/v1/servers/{id}/members/me", auth(http.HandlerFunc(serverHandler.Leave)))
	mux.Handle("PATCH /api/v1/servers/{id}/members/{mid}", auth(http.HandlerFunc(serverHandler.UpdateMemberRole)))
	mux.Handle("DELETE /api/v1/servers/{id}/members/{mid}", auth(http.HandlerFunc(serverHandler.KickMember)))

	// Protected - Channels
	mux.Handle("POST /api/v1/servers/{id}/channels", auth(http.HandlerFunc(channelHandler.Create)))
	mux.Handle("GET /api/v1/servers/{id}/channels", auth(http.HandlerFunc(channelHandler.List)))
	mux.Handle("PATCH /api/v1/channels/{id}", auth(http.HandlerFunc(channelHandler.Update)))
	mux.Handle("DELETE /api/v1/channels/{id}", auth(http.HandlerFunc(channelHandler.Delete)))

	// Protected - Channel messages
	mux.Handle("GET /api/v1/channels/{id}/messages", auth(http.HandlerFunc(messageHandler.List)))
	mux.Handle("POST /api/v1/channels/{id}/messages", auth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Delete)))

	// Protected - Conversations & direct messages
	mux.Handle("POST /api/v1/conversations", auth(http.HandlerFunc(conversationHandler.GetOrCreate)))
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(conversationHandler.List)))
	mux.Handle("GET /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(conversationHandler.ListMessages)))
	mux.Handle("POST /api/v1/conversations/{id}/messages", auth(http.HandlerFunc(conversationHandler.SendMessage)))
	mux.Handle("DELETE /api/v1/direct-messages/{id}", auth(http.HandlerFunc(conversationHandler.DeleteMessage)))

	// Real-time
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: cors.AllowAll().Handler(mux),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
