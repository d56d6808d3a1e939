package services

import (
	"context"
	"testing"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newCatalogFixture(t)
	svc := NewAgentService(f.db)
	house := f.propertyType(t, "House")
	land := f.propertyType(t, "Land")

	_, err := svc.CreateAgent(ctx, customerIdentity, &models.AgentRequest{Name: "Nope"})
	assert.ErrorIs(t, err, apierrors.ErrForbidden)

	agent, err := svc.CreateAgent(ctx, adminIdentity, &models.AgentRequest{
		Name:              "Sita Sharma",
		Email:             "sita@example.com",
		Phone:             "+9779800000000",
		SpecializationIDs: []uint{house.ID, land.ID},
	})
	require.NoError(t, err)
	assert.True(t, agent.IsActive)
	assert.Len(t, agent.Specializations, 2)

	_, err = svc.CreateAgent(ctx, adminIdentity, &models.AgentRequest{Name: "Anil", IsActive: boolPtr(false)})
	require.NoError(t, err)

	public, err := svc.ListAgents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Sita Sharma", public[0].Name)

	all, err := svc.ListAgents(ctx, adminIdentity)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anil", all[0].Name, "ordered by name")

	updated, err := svc.UpdateAgent(ctx, adminIdentity, agent.ID, &models.AgentRequest{
		Name:              "Sita Sharma",
		SpecializationIDs: []uint{land.ID},
	})
	require.NoError(t, err)
	require.Len(t, updated.Specializations, 1)
	assert.Equal(t, land.ID, updated.Specializations[0].ID)
	assert.Empty(t, updated.Email)

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			req   models.AgentRequest
			field string
		}{
			{models.AgentRequest{Name: ""}, "name"},
			{models.AgentRequest{Name: "X", Email: "nope"}, "email"},
			{models.AgentRequest{Name: "X", Phone: "12"}, "phone"},
			{models.AgentRequest{Name: "X", SpecializationIDs: []uint{999}}, "specialization_ids"},
		}
		for _, tt := range tests {
			req := tt.req
			_, err := svc.CreateAgent(ctx, adminIdentity, &req)
			require.Error(t, err)
			assert.Equal(t, tt.field, apierrors.GetAPIError(err).Details)
		}
	})

	require.NoError(t, svc.DeleteAgent(ctx, adminIdentity, agent.ID))
	_, err = svc.GetAgent(ctx, adminIdentity, agent.ID)
	assert.ErrorIs(t, err, apierrors.ErrNotFound)

	var links int64
	require.NoError(t, f.db.Table("agent_specializations").Count(&links).Error)
	assert.Zero(t, links)
}
