package router

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mem "pet-health-sync/internal/adapters/storage/memory"
	pg "pet-health-sync/internal/adapters/storage/postgres"
	"pet-health-sync/internal/domain/access"
	"pet-health-sync/internal/domain/reconciler"
	"pet-health-sync/internal/domain/records"
	"pet-health-sync/internal/domain/sharing"
	"pet-health-sync/internal/middleware"
	"pet-health-sync/internal/platform/logger"
	"pet-health-sync/internal/ports/auth"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)
	Logger       logger.Logger     // puede ser nil (se crea desde env)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var (
		store          records.Store
		tokenRepo      sharing.TokenRepository
		redemptionRepo sharing.RedemptionRepository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres unavailable, falling back to in-memory", map[string]any{"err": err.Error()})
			}
		}
	}

	if db != nil {
		store = pg.NewRecordStore(db)
		tokenRepo = pg.NewTokensRepo(db)
		redemptionRepo = pg.NewRedemptionsRepo(db)
		log.Info("storage: postgres", nil)
	} else {
		store = mem.NewRecordStore()
		tokenRepo = mem.NewTokenRepo()
		redemptionRepo = mem.NewRedemptionRepo()
		log.Info("storage: in-memory", nil)
	}

	// El tier se deriva en cada request: owner match o redemption activa.
	resolver := access.NewResolver(store, redemptionRepo)

	sharingSvc := sharing.NewService(tokenRepo, redemptionRepo, store, resolver)
	syncSvc := reconciler.NewService(store, resolver)

	reconciler.RegisterRoutes(r, syncSvc)
	sharing.RegisterRoutes(r, sharingSvc)

	return r
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			fields := map[string]any{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"elapsed_ms": time.Since(start).Milliseconds(),
				"request_id": chimw.GetReqID(r.Context()),
			}
			if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
				fields["device_id"] = deviceID
			}
			log.Info("request", fields)
		})
	}
}
