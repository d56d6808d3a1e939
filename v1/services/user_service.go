package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/gorm"
)

const recentUserWindow = 30 * 24 * time.Hour

// UserService handles the identity records the access layer reads
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// LoadUser reads the identity record named by a token subject
func (s *UserService) LoadUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "User", "load user")
	}
	return &user, nil
}

// Me describes the caller
func (s *UserService) Me(identity *models.Identity) (*models.MeResponse, error) {
	if err := requireAuthenticated(identity, models.PermissionCustomerRecords); err != nil {
		return nil, err
	}
	return &models.MeResponse{Identity: identity, Role: models.ResolveRole(identity)}, nil
}

// ListUsers returns users newest first
func (s *UserService) ListUsers(ctx context.Context, identity *models.Identity, filter models.UserFilter) ([]models.UserResponse, error) {
	if err := requirePermission(identity, models.PermissionManageUsers); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsStaff != nil {
		query = query.Where("is_staff = ?", *filter.IsStaff)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		query = query.Where(
			"LOWER(username) LIKE ? ESCAPE '\\' OR LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern, pattern,
		)
	}

	var users []models.User
	if err := query.Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		return nil, apierrors.DatabaseError("list users", err)
	}

	results := make([]models.UserResponse, 0, len(users))
	for i := range users {
		results = append(results, models.NewUserResponse(&users[i]))
	}
	return results, nil
}

// GetUser returns one user
func (s *UserService) GetUser(ctx context.Context, identity *models.Identity, id uint) (*models.UserResponse, error) {
	if err := requirePermission(identity, models.PermissionManageUsers); err != nil {
		return nil, err
	}
	user, err := s.LoadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.NewUserResponse(user)
	return &resp, nil
}

// CreateUser provisions the identity record for an account of the identity provider
func (s *UserService) CreateUser(ctx context.Context, identity *models.Identity, req *models.CreateUserRequest) (*models.UserResponse, error) {
	if err := requirePermission(identity, models.PermissionManageUsers); err != nil {
		return nil, err
	}

	user := models.User{
		Username:    strings.TrimSpace(req.Username),
		Email:       strings.TrimSpace(req.Email),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       strings.TrimSpace(req.Phone),
		Role:        req.Role,
		IsActive:    true,
		IsStaff:     req.IsStaff,
		IsSuperuser: req.IsSuperuser,
	}
	if user.Role == "" {
		user.Role = models.UserRoleCustomer
	}
	if err := validateUser(&user); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "User", "create user")
	}

	slog.Info("User created", "userID", user.ID, "username", user.Username, "actorID", actorID(identity))
	resp := models.NewUserResponse(&user)
	return &resp, nil
}

// UpdateUser changes the fields present in the request
func (s *UserService) UpdateUser(ctx context.Context, identity *models.Identity, id uint, req *models.UpdateUserRequest) (*models.UserResponse, error) {
	if err := requirePermission(identity, models.PermissionManageUsers); err != nil {
		return nil, err
	}
	if req.IsActive != nil && !*req.IsActive && id == identity.UserID {
		return nil, apierrors.ValidationError("SELF_MODIFICATION", "You cannot deactivate your own account")
	}

	user, err := s.LoadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, apierrors.HandleDatabaseError(err, "User", "update user")
	}

	slog.Info("User updated", "userID", user.ID, "actorID", actorID(identity))
	resp := models.NewUserResponse(user)
	return &resp, nil
}

// DeleteUser removes a user. Superusers and the caller's own account are protected.
func (s *UserService) DeleteUser(ctx context.Context, identity *models.Identity, id uint) error {
	if err := requirePermission(identity, models.PermissionManageUsers); err != nil {
		return err
	}
	if id == identity.UserID {
		return apierrors.ValidationError("SELF_MODIFICATION", "You cannot delete your own account")
	}

	user, err := s.LoadUser(ctx, id)
	if err != nil {
		return err
	}
	if user.IsSuperuser {
		return apierrors.ValidationError("PROTECTED_USER", "Superusers cannot be deleted")
	}

	if err := s.db.WithContext(ctx).Delete(user).Error; err != nil {
		return apierrors.DatabaseError("delete user", err)
	}

	slog.Info("User deleted", "userID", id, "actorID", actorID(identity))
	return nil
}

// ToggleActive flips a user's active flag
func (s *UserService) ToggleActive(ctx context.Context, identity *models.Identity, id uint) (*models.UserResponse, error) {
	return s.toggle(ctx, identity, id, "is_active", "You cannot deactivate your own account", func(u *models.User) bool {
		u.IsActive = !u.IsActive
		return u.IsActive
	})
}

// ToggleStaff flips a user's legacy staff flag
func (s *UserService) ToggleStaff(ctx context.Context, identity *models.Identity, id uint) (*models.UserResponse, error) {
	return s.toggle(ctx, identity, id, "is_staff", "You cannot change your own staff status", func(u *models.User) bool {
		u.IsStaff = !u.IsStaff
		return u.IsStaff
	})
}

func (s *UserService) toggle(ctx context.Context, identity *models.Identity, id uint, column, selfMessage string, flip func(*models.User) bool) (*models.UserResponse, error) {
	if err := requirePermission(identity, models.PermissionManageUsers); err != nil {
		return nil, err
	}
	if id == identity.UserID {
		return nil, apierrors.ValidationError("SELF_MODIFICATION", selfMessage)
	}

	user, err := s.LoadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	value := flip(user)
	if err := s.db.WithContext(ctx).Model(user).Update(column, value).Error; err != nil {
		return nil, apierrors.DatabaseError("update user", err)
	}

	slog.Info("User flag toggled", "userID", id, "flag", column, "value", value, "actorID", actorID(identity))
	resp := models.NewUserResponse(user)
	return &resp, nil
}

// UserStats summarizes the user base. Admins are counted by resolved role.
func (s *UserService) UserStats(ctx context.Context, identity *models.Identity) (*models.UserStatsResponse, error) {
	if err := requirePermission(identity, models.PermissionManageUsers); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var stats models.UserStatsResponse
	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&models.User{}), &stats.TotalUsers},
		{db.Model(&models.User{}).Where("is_active = ?", true), &stats.ActiveUsers},
		{db.Model(&models.User{}).Where("is_staff = ?", true), &stats.StaffUsers},
		{db.Model(&models.User{}).Scopes(models.ResolvedAdmins), &stats.AdminUsers},
		{db.Model(&models.User{}).Where("created_at >= ?", time.Now().Add(-recentUserWindow)), &stats.RecentUsers},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, apierrors.DatabaseError("count users", err)
		}
	}
	stats.InactiveUsers = stats.TotalUsers - stats.ActiveUsers
	return &stats, nil
}

// FixUserRoles sets role=admin on customers whose legacy staff or superuser
// flag already grants them administrator rights. With dryRun set nothing is
// written. The affected users are reported either way.
func (s *UserService) FixUserRoles(ctx context.Context, dryRun bool) ([]models.RoleFixResult, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Scopes(models.FlagOnlyAdmins).
		Order("id ASC").Find(&users).Error
	if err != nil {
		return nil, apierrors.DatabaseError("find users needing role repair", err)
	}

	results := make([]models.RoleFixResult, 0, len(users))
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		results = append(results, models.RoleFixResult{
			UserID:      u.ID,
			Username:    u.Username,
			IsStaff:     u.IsStaff,
			IsSuperuser: u.IsSuperuser,
		})
		ids = append(ids, u.ID)
	}

	if dryRun || len(ids) == 0 {
		return results, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", ids).Update("role", models.UserRoleAdmin).Error; err != nil {
		return nil, apierrors.DatabaseError("repair user roles", err)
	}
	slog.Info("User roles repaired", "count", len(ids))
	return results, nil
}

func validateUser(u *models.User) error {
	invalid := func(field, message string) error {
		return apierrors.ValidationErrorWithDetails("INVALID_USER", message, field)
	}
	switch {
	case u.Username == "" || len(u.Username) > 150:
		return invalid("username", "username is required and must be at most 150 characters")
	case !isValidEmail(u.Email):
		return invalid("email", "email is not valid")
	case len(u.FirstName) > 30:
		return invalid("first_name", "first_name must be at most 30 characters")
	case len(u.LastName) > 30:
		return invalid("last_name", "last_name must be at most 30 characters")
	case u.Phone != "" && !phonePattern.MatchString(u.Phone):
		return invalid("phone", phoneMessage)
	case u.Role != models.UserRoleCustomer && u.Role != models.UserRoleAdmin:
		return invalid("role", "role must be one of customer, admin")
	}
	return nil
}
