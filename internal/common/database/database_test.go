package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sap-address-assistant/internal/common/config"
	"sap-address-assistant/internal/models"
)

// ==========================
// Test Helpers
// ==========================

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func setupMockDB(t *testing.T) (*AuditStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAuditStore(db), mock
}

// ==========================
// Extraction Cache Tests
// ==========================

func TestExtractionCache_RoundTripAndTTL(t *testing.T) {
	mr, client := setupRedis(t)
	cache := NewExtractionCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, models.DomainTelephone, "create phone for plant 1000")
	require.NoError(t, err)
	assert.False(t, ok)

	want := models.ExtractionResult{
		Intent:   models.IntentCreateTelephoneAddress,
		Entities: models.EntityMap{"PLANT": "1000"},
	}
	require.NoError(t, cache.Set(ctx, models.DomainTelephone, "create phone for plant 1000", want))

	got, ok, err := cache.Get(ctx, models.DomainTelephone, "  create phone   for plant 1000 ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = cache.Get(ctx, models.DomainPostal, "create phone for plant 1000")
	require.NoError(t, err)
	assert.False(t, ok, "domains must not share entries")

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, models.DomainTelephone, "create phone for plant 1000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExtractionCache_CaseSensitive(t *testing.T) {
	_, client := setupRedis(t)
	cache := NewExtractionCache(client, time.Minute)
	ctx := context.Background()

	stored := models.ExtractionResult{
		Intent:   models.IntentUpdatePostalAddress,
		Entities: models.EntityMap{"PLANT": "AB10", "STREET": "Main Road"},
	}
	require.NoError(t, cache.Set(ctx, models.DomainPostal, "update plant AB10 street Main Road", stored))

	_, ok, err := cache.Get(ctx, models.DomainPostal, "update plant ab10 street main road")
	require.NoError(t, err)
	assert.False(t, ok, "differently cased queries must not share entities")

	got, ok, err := cache.Get(ctx, models.DomainPostal, "update plant AB10 street Main Road")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stored, got)
}

func TestExtractionCache_CorruptEntry(t *testing.T) {
	mr, client := setupRedis(t)
	cache := NewExtractionCache(client, 0)

	require.NoError(t, mr.Set(cacheKey(models.DomainPostal, "hello"), "{not json"))

	_, ok, err := cache.Get(context.Background(), models.DomainPostal, "hello")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestExtractionCache_Unavailable(t *testing.T) {
	mr, client := setupRedis(t)
	cache := NewExtractionCache(client, time.Minute)
	mr.Close()

	_, _, err := cache.Get(context.Background(), models.DomainPostal, "hello")
	assert.Error(t, err)
}

func TestRedisClient_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rc, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer rc.Close()

	assert.NoError(t, rc.Ping(context.Background()))

	_, err = NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

// ==========================
// Audit Store Tests
// ==========================

func TestAuditStore_EnsureSchema(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS address_write_audit")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditStore_Record(t *testing.T) {
	store, mock := setupMockDB(t)
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO address_write_audit")).
		WithArgs(sqlmock.AnyArg(), "req-1", "CreateTelephoneAddress", "telephone", "1000", "created", "success", nil, createdAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := store.Record(context.Background(), AuditEntry{
		RequestID: "req-1",
		Intent:    "CreateTelephoneAddress",
		Domain:    "telephone",
		Plant:     "1000",
		Action:    "created",
		Status:    "success",
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditStore_RecordFailure(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO address_write_audit")).
		WithArgs(sqlmock.AnyArg(), "req-2", "UpdatePostalAddress", "postal", "2000", "updated", "error", "REMOTE_SERVICE_ERROR", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err := store.Record(context.Background(), AuditEntry{
		RequestID: "req-2",
		Intent:    "UpdatePostalAddress",
		Domain:    "postal",
		Plant:     "2000",
		Action:    "updated",
		Status:    "error",
		ErrorCode: "REMOTE_SERVICE_ERROR",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
