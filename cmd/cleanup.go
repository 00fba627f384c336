package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/auth"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/config"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/database"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/service"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete stale devices and their signaling messages (cron-friendly, idempotent)",
	RunE:  runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	svc := service.NewDeviceService(db, cfg.PairingTokenTTL, cfg.DeviceStaleAfter, logger)
	deleted, err := svc.CleanupStaleDevices(auth.Identity{UserID: "cleanup-cli", Role: auth.RoleAdmin})
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	log.Printf("cleanup: removed %d stale device(s)", deleted)
	return nil
}
