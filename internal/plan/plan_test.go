package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskhub/internal/domain"
)

func TestDefault_IsFree(t *testing.T) {
	t.Parallel()

	p := Default()
	assert.Equal(t, Free, p.Name)
	assert.Equal(t, 5, p.MaxUsers)
	assert.Equal(t, 3, p.MaxProjects)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		maxUsers    int
		maxProjects int
	}{
		{Free, 5, 3},
		{Pro, 25, 15},
		{Enterprise, 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.maxUsers, p.MaxUsers)
			assert.Equal(t, tt.maxProjects, p.MaxProjects)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	t.Parallel()

	_, err := Lookup("platinum")
	require.ErrorIs(t, err, ErrUnknownPlan)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApply_ResetsLimits(t *testing.T) {
	t.Parallel()

	tenant := &domain.Tenant{SubscriptionPlan: Free, MaxUsers: 5, MaxProjects: 3}
	pro, err := Lookup(Pro)
	require.NoError(t, err)

	Apply(tenant, pro)

	assert.Equal(t, Pro, tenant.SubscriptionPlan)
	assert.Equal(t, 25, tenant.MaxUsers)
	assert.Equal(t, 15, tenant.MaxProjects)
}

func TestHasFeature(t *testing.T) {
	t.Parallel()

	free := Default()
	assert.False(t, free.HasFeature("audit-log"))

	enterprise, err := Lookup(Enterprise)
	require.NoError(t, err)
	assert.True(t, enterprise.HasFeature("audit-log"))
	assert.False(t, enterprise.HasFeature("nonexistent"))
}

func TestValidateLimits(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateLimits(1, 0))
	require.ErrorIs(t, ValidateLimits(0, 3), domain.ErrValidation)
	require.ErrorIs(t, ValidateLimits(5, -1), domain.ErrValidation)
}
