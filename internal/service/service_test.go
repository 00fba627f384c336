package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/auth"
	"github.com/TimeMachine1994/020426-TributestreamWeb-sub001/internal/model"
)

const (
	testAdminID    = "a0000000-0000-4000-8000-000000000001"
	testOperatorID = "a0000000-0000-4000-8000-000000000002"
	testStrangerID = "a0000000-0000-4000-8000-000000000003"
)

var (
	admin    = auth.Identity{UserID: testAdminID, Role: auth.RoleAdmin}
	operator = auth.Identity{UserID: testOperatorID, Role: auth.RoleOperator}
	stranger = auth.Identity{UserID: testStrangerID, Role: auth.RoleOperator}
)

// newTestDB opens an in-memory SQLite database with the schema auto-migrated.
// A single connection keeps every session on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&model.Memorial{},
		&model.Device{},
		&model.SignalingMessage{},
		&model.Stream{},
		&model.BroadcastPresence{},
	))
	return db
}

// seedMemorial inserts a memorial led by the test operator.
func seedMemorial(t *testing.T, db *gorm.DB) *model.Memorial {
	t.Helper()
	opID := testOperatorID
	mem := &model.Memorial{
		ID:             uuid.New().String(),
		Slug:           "memorial-" + uuid.New().String()[:8],
		Title:          "Celebration of Life",
		CreatorID:      testAdminID,
		LeadOperatorID: &opID,
	}
	require.NoError(t, db.Create(mem).Error)
	return mem
}

func newDeviceService(db *gorm.DB) *DeviceService {
	return NewDeviceService(db, 5*time.Minute, time.Hour, zap.NewNop())
}

// seedDevice inserts a device row with explicit status/timestamps, bypassing
// the token issue path.
func seedDevice(t *testing.T, db *gorm.DB, memorialID, status string, expiresAt time.Time, lastSeen *time.Time) *model.Device {
	t.Helper()
	dev := &model.Device{
		ID:             uuid.New().String(),
		MemorialID:     memorialID,
		Name:           "cam",
		Token:          uuid.New().String(),
		Status:         status,
		TokenExpiresAt: expiresAt,
		LastSeen:       lastSeen,
	}
	require.NoError(t, db.Create(dev).Error)
	return dev
}
