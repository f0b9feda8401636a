package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/portion-tracker-api/internal/dto"
	"github.com/noah-isme/portion-tracker-api/internal/models"
	"github.com/noah-isme/portion-tracker-api/internal/repository"
)

// UserService manages the user directory and role assignments.
type UserService interface {
	List(ctx context.Context, req dto.UserListRequest) ([]dto.UserResponse, error)
	Get(ctx context.Context, id uint) (dto.UserResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.UserCreateRequest) (dto.UserResponse, error)
	ChangeRole(ctx context.Context, actor Actor, id uint, payload dto.UserRoleRequest) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, actor Actor, payload dto.ProfileUpdateRequest) (dto.UserResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type userService struct {
	users     repository.UserRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewUserService constructs the user service.
func NewUserService(users repository.UserRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) List(ctx context.Context, req dto.UserListRequest) ([]dto.UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	filter := repository.UserFilter{DepartmentID: req.DepartmentID}
	if req.Role != "" {
		role, err := models.ParseRole(req.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, req.Role)
		}
		filter.Role = &role
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}
	return responses, nil
}

func (s *userService) Get(ctx context.Context, id uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

// Create registers a user. The first department id becomes the primary
// department; all of them are linked.
func (s *userService) Create(ctx context.Context, actor Actor, payload dto.UserCreateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	role, err := models.ParseRole(payload.Role)
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("%w: %s", ErrInvalidRole, payload.Role)
	}
	if (role == models.RoleAdmin || role == models.RoleSuperAdmin) && !actor.Can(models.CapabilityManageRoles) {
		return dto.UserResponse{}, fmt.Errorf("%w: %s requires role management", ErrInvalidRole, role)
	}

	user := models.User{
		Email:     strings.ToLower(strings.TrimSpace(payload.Email)),
		FirstName: strings.TrimSpace(payload.FirstName),
		LastName:  strings.TrimSpace(payload.LastName),
		Role:      role,
		IsActive:  true,
	}
	if len(payload.DepartmentIDs) > 0 {
		primary := payload.DepartmentIDs[0]
		user.DepartmentID = &primary
	}

	links := payload.DepartmentIDs
	if role != models.RoleFacilitator && len(links) > 1 {
		links = links[:1]
	}

	if err := s.users.Create(ctx, &user, links); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrDepartmentNotFound
		}
		return dto.UserResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "user.created",
		EntityType: "user",
		EntityID:   &user.ID,
		Metadata:   map[string]interface{}{"role": string(role), "email": user.Email},
	})

	return s.Get(ctx, user.ID)
}

func (s *userService) ChangeRole(ctx context.Context, actor Actor, id uint, payload dto.UserRoleRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	role, err := models.ParseRole(payload.Role)
	if err != nil {
		return dto.UserResponse{}, fmt.Errorf("%w: %s", ErrInvalidRole, payload.Role)
	}

	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "user.role_changed",
		EntityType: "user",
		EntityID:   &id,
		Metadata:   map[string]interface{}{"from": string(current.Role), "to": string(role)},
	})

	return s.Get(ctx, id)
}

// UpdateProfile renames the acting user. Role, email and departments are
// left to administrators.
func (s *userService) UpdateProfile(ctx context.Context, actor Actor, payload dto.ProfileUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	firstName := strings.TrimSpace(payload.FirstName)
	if firstName == "" {
		return dto.UserResponse{}, ErrFirstNameRequired
	}
	lastName := strings.TrimSpace(payload.LastName)

	if err := s.users.UpdateProfile(ctx, actor.ID, firstName, lastName); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "user.profile_updated",
		EntityType: "user",
		EntityID:   &actor.ID,
	})

	return s.Get(ctx, actor.ID)
}

func (s *userService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	audit(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "user.deleted",
		EntityType: "user",
		EntityID:   &id,
	})
	return nil
}
