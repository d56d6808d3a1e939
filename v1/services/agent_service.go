package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AgentService handles agent profiles
type AgentService struct {
	db *gorm.DB
}

// NewAgentService creates a new agent service
func NewAgentService(db *gorm.DB) *AgentService {
	return &AgentService{db: db}
}

// ListAgents returns agents ordered by name. Inactive agents are listed for
// administrators only.
func (s *AgentService) ListAgents(ctx context.Context, identity *models.Identity) ([]models.Agent, error) {
	if err := requirePermission(identity, models.PermissionReadCatalog); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Preload("Specializations").Order("name ASC, id ASC")
	if !isAdmin(identity) {
		query = query.Where("is_active = ?", true)
	}

	var agents []models.Agent
	if err := query.Find(&agents).Error; err != nil {
		return nil, apierrors.DatabaseError("list agents", err)
	}
	return agents, nil
}

// GetAgent returns one agent
func (s *AgentService) GetAgent(ctx context.Context, identity *models.Identity, id uint) (*models.Agent, error) {
	if err := requirePermission(identity, models.PermissionReadCatalog); err != nil {
		return nil, err
	}

	var agent models.Agent
	if err := s.db.WithContext(ctx).Preload("Specializations").First(&agent, id).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "Agent", "get agent")
	}
	if !agent.IsActive && !isAdmin(identity) {
		return nil, apierrors.NotFoundError("Agent")
	}
	return &agent, nil
}

// CreateAgent adds an agent profile
func (s *AgentService) CreateAgent(ctx context.Context, identity *models.Identity, req *models.AgentRequest) (*models.Agent, error) {
	if err := requirePermission(identity, models.PermissionWriteAgent); err != nil {
		return nil, err
	}
	if err := validateAgentRequest(req); err != nil {
		return nil, err
	}

	agent := models.Agent{IsActive: true}
	applyAgentRequest(&agent, req)

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	specializations, err := loadSpecializations(tx, req.SpecializationIDs)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Omit(clause.Associations).Create(&agent).Error; err != nil {
		tx.Rollback()
		return nil, apierrors.HandleDatabaseError(err, "Agent", "create agent")
	}
	if len(specializations) > 0 {
		if err := tx.Model(&agent).Association("Specializations").Replace(specializations); err != nil {
			tx.Rollback()
			return nil, apierrors.DatabaseError("set agent specializations", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apierrors.DatabaseError("commit agent", err)
	}

	slog.Info("Agent created", "agentID", agent.ID, "name", agent.Name)
	return s.GetAgent(ctx, identity, agent.ID)
}

// UpdateAgent replaces an agent's profile and specializations
func (s *AgentService) UpdateAgent(ctx context.Context, identity *models.Identity, id uint, req *models.AgentRequest) (*models.Agent, error) {
	if err := requirePermission(identity, models.PermissionWriteAgent); err != nil {
		return nil, err
	}
	if err := validateAgentRequest(req); err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var agent models.Agent
	if err := tx.First(&agent, id).Error; err != nil {
		tx.Rollback()
		return nil, apierrors.HandleDatabaseError(err, "Agent", "get agent")
	}

	specializations, err := loadSpecializations(tx, req.SpecializationIDs)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	applyAgentRequest(&agent, req)
	if err := tx.Omit(clause.Associations).Save(&agent).Error; err != nil {
		tx.Rollback()
		return nil, apierrors.HandleDatabaseError(err, "Agent", "update agent")
	}
	if err := tx.Model(&agent).Association("Specializations").Replace(specializations); err != nil {
		tx.Rollback()
		return nil, apierrors.DatabaseError("set agent specializations", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apierrors.DatabaseError("commit agent", err)
	}

	slog.Info("Agent updated", "agentID", agent.ID)
	return s.GetAgent(ctx, identity, agent.ID)
}

// DeleteAgent removes an agent profile and its specializations
func (s *AgentService) DeleteAgent(ctx context.Context, identity *models.Identity, id uint) error {
	if err := requirePermission(identity, models.PermissionWriteAgent); err != nil {
		return err
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var agent models.Agent
	if err := tx.First(&agent, id).Error; err != nil {
		tx.Rollback()
		return apierrors.HandleDatabaseError(err, "Agent", "get agent")
	}
	if err := tx.Model(&agent).Association("Specializations").Clear(); err != nil {
		tx.Rollback()
		return apierrors.DatabaseError("clear agent specializations", err)
	}
	if err := tx.Delete(&agent).Error; err != nil {
		tx.Rollback()
		return apierrors.DatabaseError("delete agent", err)
	}

	if err := tx.Commit().Error; err != nil {
		return apierrors.DatabaseError("commit agent delete", err)
	}

	slog.Info("Agent deleted", "agentID", id)
	return nil
}

func loadSpecializations(tx *gorm.DB, ids []uint) ([]models.PropertyType, error) {
	specializations := []models.PropertyType{}
	if len(ids) == 0 {
		return specializations, nil
	}

	unique := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	if err := tx.Where("id IN ?", ids).Find(&specializations).Error; err != nil {
		return nil, apierrors.DatabaseError("load specializations", err)
	}
	if len(specializations) != len(unique) {
		return nil, apierrors.ValidationErrorWithDetails("INVALID_AGENT", "one or more specializations do not exist", "specialization_ids")
	}
	return specializations, nil
}

func applyAgentRequest(agent *models.Agent, req *models.AgentRequest) {
	agent.UserID = req.UserID
	agent.Name = strings.TrimSpace(req.Name)
	agent.Email = strings.TrimSpace(req.Email)
	agent.Phone = strings.TrimSpace(req.Phone)
	agent.Bio = req.Bio
	agent.ProfilePicture = strings.TrimSpace(req.ProfilePicture)
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}
}

func validateAgentRequest(req *models.AgentRequest) error {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return apierrors.ValidationErrorWithDetails("INVALID_AGENT", "name is required", "name")
	case len(name) > models.MaxNameLength:
		return apierrors.ValidationErrorWithDetails("INVALID_AGENT", fmt.Sprintf("name must be at most %d characters", models.MaxNameLength), "name")
	case req.Email != "" && !isValidEmail(req.Email):
		return apierrors.ValidationErrorWithDetails("INVALID_AGENT", "email is not valid", "email")
	case req.Phone != "" && !phonePattern.MatchString(strings.TrimSpace(req.Phone)):
		return apierrors.ValidationErrorWithDetails("INVALID_AGENT", phoneMessage, "phone")
	case len(req.ProfilePicture) > models.MaxURLLength:
		return apierrors.ValidationErrorWithDetails("INVALID_AGENT", fmt.Sprintf("profile_picture must be at most %d characters", models.MaxURLLength), "profile_picture")
	}
	return nil
}
