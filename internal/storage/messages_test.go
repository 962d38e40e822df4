package storage_test

import (
	"context"
	"devlinkr/backend/internal/models"
	"devlinkr/backend/internal/storage"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder keeps every statement gorm renders, with its values inlined.
type sqlRecorder struct {
	logger.Interface
	stmts []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.stmts = append(r.stmts, sql)
}

func (r *sqlRecorder) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, r.stmts)
	return r.stmts[len(r.stmts)-1]
}

// dryRunService renders SQL against the postgres dialect without a server.
func dryRunService(t *testing.T) (*storage.Service, *sqlRecorder) {
	t.Helper()
	rec := &sqlRecorder{Interface: logger.Discard}
	db, err := gorm.Open(postgres.Open("host=localhost user=devlinkr dbname=devlinkr sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               rec,
	})
	require.NoError(t, err)
	return storage.NewStorageService(db, nil, slog.New(slog.NewTextHandler(io.Discard, nil))), rec
}

func TestMarkDelivered_OnlyFromSent(t *testing.T) {
	s, rec := dryRunService(t)

	_, err := s.MarkDelivered(context.Background(), models.MessageRef{ID: "6f1c2f4e-3a4b-4c5d-8e9f-0a1b2c3d4e5f"})
	require.NoError(t, err)

	sql := rec.last(t)
	assert.Contains(t, sql, `UPDATE "messages" SET "status"='delivered'`)
	assert.Contains(t, sql, "status IN ('sent')")
	assert.NotContains(t, sql, "'seen'", "a seen message is never moved back to delivered")
}

func TestMarkDelivered_ContentMatchOnlyFromSent(t *testing.T) {
	s, rec := dryRunService(t)

	_, err := s.MarkDelivered(context.Background(), models.MessageRef{ID: "not-a-uuid", Sender: "a@x.com", Receiver: "b@x.com", Message: "hi"})
	require.NoError(t, err)

	sql := rec.last(t)
	assert.Contains(t, sql, "message = 'hi' AND status IN ('sent')")
	assert.NotContains(t, sql, "not-a-uuid")
	assert.NotContains(t, sql, "'seen'")
}

func TestMarkSeen_SkipsSeenMessages(t *testing.T) {
	s, rec := dryRunService(t)

	_, err := s.MarkSeen(context.Background(), "a@x.com", "b@x.com")
	require.NoError(t, err)

	sql := rec.last(t)
	assert.Contains(t, sql, `SET "status"='seen'`)
	assert.Contains(t, sql, "sender = 'a@x.com' AND receiver = 'b@x.com' AND status IN ('sent','delivered')")
}
