package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"pet-health-sync/internal/adapters/auth/jwtauth"
	"pet-health-sync/internal/platform/logger"
	"pet-health-sync/internal/ports/auth"
	"pet-health-sync/internal/router"
)

func main() {
	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Sin JWT_SECRET el server queda en modo dev (X-Debug-User-ID).
	var verifier auth.AuthVerifier
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		verifier = jwtauth.NewVerifier(secret)
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Logger:       logger.NewFromEnv(),
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Printf("starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
