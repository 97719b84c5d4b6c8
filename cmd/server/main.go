package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/simdigmanuda/pdp.sim/internal/config"
	"github.com/simdigmanuda/pdp.sim/internal/db"
	pdpgrpc "github.com/simdigmanuda/pdp.sim/internal/grpc"
	internalhttp "github.com/simdigmanuda/pdp.sim/internal/http"
	"github.com/simdigmanuda/pdp.sim/internal/jobs"
	"github.com/simdigmanuda/pdp.sim/internal/operations"
	"github.com/simdigmanuda/pdp.sim/internal/settings"
	"github.com/simdigmanuda/pdp.sim/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("env file error: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("schema migration failed: %v", err)
		}
	}

	store := db.NewStore(pool)
	created, err := operations.BootstrapAdmin(ctx, store.Queries, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("admin bootstrap failed: %v", err)
	}
	if created {
		log.Printf("created superadmin %s", cfg.AdminUsername)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis ping failed: %v", err)
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("redis close error: %v", err)
			}
		}()
	}

	photos := storage.New(cfg.UploadDir, cfg.ThumbnailWidth)
	settingsStore := settings.NewStore(cfg.SettingsPath, cfg.School)

	server, err := internalhttp.NewServer(cfg, store, photos, settingsStore, redisClient)
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcServer *grpc.Server
	if cfg.ServiceAuthToken != "" {
		serviceAuth, err := pdpgrpc.NewServiceAuth(cfg.ServiceAuthToken, pdpgrpc.HealthCheckMethod)
		if err != nil {
			log.Fatalf("grpc service auth init failed: %v", err)
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(serviceAuth.Unary()))
		pdpgrpc.RegisterComplianceQueryServer(grpcServer, pdpgrpc.NewComplianceServer(store.Queries, cfg.Location()))
		healthpb.RegisterHealthServer(grpcServer, health.NewServer())
	} else {
		log.Printf("grpc disabled: SERVICE_AUTH_TOKEN not set")
	}

	jobs.StartPhotoRetentionJob(ctx, cfg, store.Queries, photos)

	go func() {
		log.Printf("pdp http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	if grpcServer != nil {
		go func() {
			listener, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				log.Fatalf("grpc listen error: %v", err)
			}
			log.Printf("pdp grpc listening on %s", cfg.GRPCAddr)
			if err := grpcServer.Serve(listener); err != nil {
				log.Fatalf("grpc server error: %v", err)
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}
