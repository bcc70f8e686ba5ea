package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"congsync-server/internal/config"
	"congsync-server/internal/domain"
	"congsync-server/internal/handler"
	"congsync-server/internal/logger"
	"congsync-server/internal/middleware"
	"congsync-server/internal/repository"
	"congsync-server/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Per-endpoint authorization policies. This table is the security boundary:
// every protected route is wrapped by the authenticator with exactly one of
// these entries.
var (
	sendPolicy = middleware.Policy{
		Roles:       []domain.DeviceRole{domain.RoleDesktop, domain.RoleServer},
		Permissions: []string{"send"},
		Methods:     []string{http.MethodPost},
		AllowLocal:  true,
	}
	incomingReadPolicy = middleware.Policy{
		Roles:       []domain.DeviceRole{domain.RoleDesktop, domain.RoleServer},
		Permissions: []string{"incoming"},
		Methods:     []string{http.MethodGet},
		AllowLocal:  true,
	}
	incomingWritePolicy = middleware.Policy{
		Roles:       []domain.DeviceRole{domain.RoleMobile, domain.RoleServer},
		Permissions: []string{"incoming"},
		Methods:     []string{http.MethodPost},
	}
	queuePolicy = middleware.Policy{
		Roles:       []domain.DeviceRole{domain.RoleDesktop, domain.RoleServer},
		Permissions: []string{"queue"},
		Methods:     []string{http.MethodGet},
		AllowLocal:  true,
	}
	updatesPolicy = middleware.Policy{
		Roles:       []domain.DeviceRole{domain.RoleMobile, domain.RoleDesktop, domain.RoleServer},
		Permissions: []string{"updates"},
		Methods:     []string{http.MethodGet},
	}
	ackPolicy = middleware.Policy{
		Roles:       []domain.DeviceRole{domain.RoleMobile, domain.RoleDesktop, domain.RoleServer},
		Permissions: []string{"ack"},
		Methods:     []string{http.MethodPost},
	}
	importPolicy = middleware.Policy{
		Roles:       []domain.DeviceRole{domain.RoleDesktop, domain.RoleServer},
		Permissions: []string{"import"},
		Methods:     []string{http.MethodPost},
		AllowLocal:  true,
	}
	notificationsPolicy = middleware.Policy{
		Roles:       []domain.DeviceRole{domain.RoleDesktop, domain.RoleServer},
		Permissions: []string{"notifications"},
		Methods:     []string{http.MethodGet, http.MethodDelete},
		AllowLocal:  true,
	}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLog.Sync()

	for _, dir := range []string{cfg.Data.Dir, cfg.Data.AssetsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			zapLog.Fatal("failed to create data directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	deviceRepo := repository.NewDeviceRepository(filepath.Join(cfg.Data.Dir, "devices.json"))
	jobRepo := repository.NewJobRepository(filepath.Join(cfg.Data.Dir, "jobs.json"))
	notificationRepo := repository.NewNotificationRepository(filepath.Join(cfg.Data.Dir, "notifications.json"))
	attendanceRepo := repository.NewAttendanceRepository(filepath.Join(cfg.Data.Dir, "attendance.json"))
	reportRepo := repository.NewReportRepository(filepath.Join(cfg.Data.Dir, "reports.json"))
	contactRepo := repository.NewContactRepository(filepath.Join(cfg.Data.Dir, "contacts.json"))

	registry := service.NewDeviceRegistry(deviceRepo)
	assetWriter := service.NewAssetWriter(cfg.Data.AssetsDir, zapLog)
	dispatcher := service.NewImportDispatcher(contactRepo, attendanceRepo, reportRepo, zapLog)
	jobService := service.NewJobService(jobRepo, notificationRepo, assetWriter, dispatcher, zapLog)
	notificationService := service.NewNotificationService(notificationRepo)

	auth := middleware.NewDeviceAuth(registry, cfg.Auth.TimestampWindow, cfg.Auth.AllowLocalClients, zapLog)
	syncHandler := handler.NewSyncHandler(jobService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	r := mux.NewRouter()
	r.Use(middleware.LoggerMiddleware(zapLog))
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix("/api/v1").Subrouter()

	api.Handle("/sync/send",
		auth.Require(sendPolicy)(http.HandlerFunc(syncHandler.Send))).Methods("POST", "OPTIONS")
	api.Handle("/sync/incoming",
		auth.Require(incomingReadPolicy)(http.HandlerFunc(syncHandler.IncomingList))).Methods("GET", "OPTIONS")
	api.Handle("/sync/incoming",
		auth.Require(incomingWritePolicy)(http.HandlerFunc(syncHandler.IncomingCreate))).Methods("POST", "OPTIONS")
	api.Handle("/sync/queue",
		auth.Require(queuePolicy)(http.HandlerFunc(syncHandler.Queue))).Methods("GET", "OPTIONS")
	api.Handle("/sync/updates",
		auth.Require(updatesPolicy)(http.HandlerFunc(syncHandler.Updates))).Methods("GET", "OPTIONS")
	api.Handle("/sync/ack",
		auth.Require(ackPolicy)(http.HandlerFunc(syncHandler.Ack))).Methods("POST", "OPTIONS")
	api.Handle("/sync/import",
		auth.Require(importPolicy)(http.HandlerFunc(syncHandler.Import))).Methods("POST", "OPTIONS")
	api.Handle("/notifications",
		auth.Require(notificationsPolicy)(http.HandlerFunc(notificationHandler.List))).Methods("GET", "OPTIONS")
	api.Handle("/notifications",
		auth.Require(notificationsPolicy)(http.HandlerFunc(notificationHandler.Delete))).Methods("DELETE", "OPTIONS")

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLog.Info("starting congsync server",
			zap.String("addr", addr),
			zap.String("env", cfg.Server.Env),
			zap.String("data_dir", cfg.Data.Dir))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zapLog.Info("server stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"congsync-server"}`))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"Congsync Server API","version":"1.0.0","endpoints":{"/api/v1/sync/send":"POST","/api/v1/sync/incoming":"GET, POST","/api/v1/sync/queue":"GET","/api/v1/sync/updates":"GET","/api/v1/sync/ack":"POST","/api/v1/sync/import":"POST","/api/v1/notifications":"GET, DELETE"}}`))
}
