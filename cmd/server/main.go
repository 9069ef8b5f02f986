package main

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"casterd/internal/config"
	"casterd/internal/handlers"
	"casterd/internal/middleware"
	"casterd/internal/source/apple"
	"casterd/internal/source/podbbang"
	"casterd/internal/source/spotify"
	"casterd/internal/source/youtube"
	"casterd/internal/store"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	cfg := config.Load()

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("could not open database: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asynqClient.Close()

	h := handlers.New(
		st,
		podbbang.NewClient(podbbang.Config{}),
		spotify.NewClient(spotify.Config{
			ClientID:     cfg.SpotifyClientID,
			ClientSecret: cfg.SpotifyClientSecret,
		}),
		apple.NewClient(apple.Config{}),
		youtube.NewClient(),
		asynqClient,
		cfg,
	)

	r := mux.NewRouter()
	h.Register(r)

	// Ingestion routes shell out to external services; throttle per client.
	limiter := middleware.NewRateLimiterMiddleware(rate.Limit(1), 5)
	r.Use(func(next http.Handler) http.Handler {
		limited := limiter.Middleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method == http.MethodPost {
				limited.ServeHTTP(w, req)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	log.Printf("Starting server on :%s (commit: %s)", cfg.Port, CommitSHA)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
