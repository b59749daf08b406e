package redis_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/domain"
	redisstore "github.com/gosuda/taskhub/internal/store/redis"
)

func TestAuditChannel(t *testing.T) {
	t.Parallel()

	tenantID := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")
	assert.Equal(t, "audit:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", redisstore.AuditChannel(tenantID))
	assert.NotEqual(t, redisstore.AuditChannel(tenantID), redisstore.AuditChannel(uuid.New()))
}

func TestChannelFor(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	nilID := uuid.Nil

	tests := []struct {
		name  string
		entry domain.AuditEntry
		want  string
	}{
		{"tenant entry", domain.AuditEntry{TenantID: &tenantID}, redisstore.AuditChannel(tenantID)},
		{"no tenant", domain.AuditEntry{}, redisstore.PlatformChannel},
		{"nil tenant id", domain.AuditEntry{TenantID: &nilID}, redisstore.PlatformChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, redisstore.ChannelFor(&tt.entry))
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()
	entry := domain.AuditEntry{
		ID: uuid.New(), TenantID: &tenantID, UserID: &userID,
		Action: domain.ActionUpdateStatus, EntityType: "task", EntityID: "t1",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	payload, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"entityType":"task"`)

	got, err := redisstore.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	_, err = redisstore.Decode([]byte("{"))
	require.Error(t, err)
}
