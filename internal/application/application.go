package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/auth"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/config"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/database"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/handler"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/provider/mux"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/router"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/service"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/token"
)

// muxProvider adapts the Mux REST client to the service.LiveProvider port.
type muxProvider struct {
	c *mux.Client
}

func (p muxProvider) Create(ctx context.Context, correlationTag string) (*service.ProvisionedStream, error) {
	ls, err := p.c.Create(ctx, correlationTag)
	if err != nil {
		return nil, err
	}
	return &service.ProvisionedStream{ID: ls.ID, StreamKey: ls.StreamKey, PlaybackID: ls.PlaybackID}, nil
}

func (p muxProvider) Delete(ctx context.Context, liveStreamID string) error {
	return p.c.Delete(ctx, liveStreamID)
}

func (p muxProvider) GetStatus(ctx context.Context, liveStreamID string) (string, error) {
	return p.c.GetStatus(ctx, liveStreamID)
}

// API is the HTTP API application.
type API struct {
	cfg *config.Config
	srv *http.Server
	db  *gorm.DB
	log *zap.Logger
}

// NewAPI creates the API application: validates config, runs migrations,
// opens the database, and wires services, handlers and the router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	var provider service.LiveProvider
	muxClient := mux.NewClient(cfg.MuxAPIBaseURL, cfg.MuxTokenID, cfg.MuxTokenSecret, logger)
	if muxClient.Enabled() {
		provider = muxProvider{c: muxClient}
	} else {
		log.Printf("warning: mux credentials not configured, stream provisioning disabled")
	}

	authMgr := auth.NewManager(cfg.JWTSecret)
	issuer := token.NewIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.LiveKitURL)
	hub := service.NewNotifyHub(cfg.WSReadBufferSize, cfg.WSWriteBufferSize, logger)

	deviceSvc := service.NewDeviceService(db, cfg.PairingTokenTTL, cfg.DeviceStaleAfter, logger)
	signalingSvc := service.NewSignalingService(db, hub, logger)
	streamSvc := service.NewStreamService(db, provider, logger)
	memorialSvc := service.NewMemorialService(db, logger)

	r := router.New(router.Deps{
		Auth:      authMgr,
		Memorials: handler.NewMemorialHandler(memorialSvc, streamSvc),
		Devices:   handler.NewDeviceHandler(deviceSvc),
		Signaling: handler.NewSignalingHandler(signalingSvc),
		WS:        handler.NewSignalingWSHandler(hub, signalingSvc, logger),
		Streams:   handler.NewStreamHandler(streamSvc),
		Tokens:    handler.NewTokenHandler(issuer, deviceSvc),
		Health:    handler.NewHealthHandler(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, log: logger}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.srv.Addr)
	log.Printf("  Health:    %s/health", base)
	log.Printf("  Devices:   %s/api/devices", base)
	log.Printf("  Signaling: %s/api/signaling", base)
	log.Printf("  Streams:   %s/api/streams", base)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	_ = a.log.Sync()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
