package service

import (
	"context"
	"errors"
	"strings"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/repository"
	"github.com/google/uuid"
)

type userService struct {
	users     repository.UserRepo
	customers repository.CustomerRepo
	opts      Options
}

func NewUserService(users repository.UserRepo, customers repository.CustomerRepo, opts Options) UserService {
	return &userService{users: users, customers: customers, opts: opts.withDefaults()}
}

func (s *userService) Bootstrap(ctx context.Context, u *domain.User) error {
	existing, err := s.users.List(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return domain.Conflictf("users already exist; create more users as an owner")
	}
	u.Role = domain.RoleOwner
	return s.create(ctx, u)
}

func (s *userService) Create(ctx context.Context, caller domain.Caller, u *domain.User) error {
	if err := caller.Require(domain.RoleOwner); err != nil {
		return err
	}
	return s.create(ctx, u)
}

func (s *userService) create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Name = strings.TrimSpace(u.Name)
	u.Active = true
	now := s.opts.now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if err := u.Validate(); err != nil {
		return err
	}
	return s.users.Create(ctx, u)
}

func (s *userService) Get(ctx context.Context, caller domain.Caller, id string) (*domain.User, error) {
	if !caller.IsOwner() && caller.UserID != id {
		return nil, domain.Forbiddenf("you may only view your own profile")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "user %s not found", id)
	}
	return u, nil
}

func (s *userService) List(ctx context.Context, caller domain.Caller, role domain.Role) ([]*domain.User, error) {
	if err := caller.Require(domain.RoleOwner); err != nil {
		return nil, err
	}
	if role != "" && !domain.ValidRoles[role] {
		return nil, domain.Validationf("invalid role %q", role)
	}
	out, err := s.users.List(ctx, role)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.User{}
	}
	return out, nil
}

func (s *userService) Deactivate(ctx context.Context, caller domain.Caller, id string) (*domain.User, error) {
	if err := caller.Require(domain.RoleOwner); err != nil {
		return nil, err
	}
	if caller.UserID == id {
		return nil, domain.Validationf("you cannot deactivate yourself")
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "user %s not found", id)
	}
	u.Active = false
	u.UpdatedAt = s.opts.now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userService) Resolve(ctx context.Context, idOrUsername string) (domain.Caller, error) {
	key := strings.TrimSpace(idOrUsername)
	if key == "" {
		return domain.Caller{}, domain.Unauthenticatedf("no user given")
	}
	u, err := s.users.GetByID(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		u, err = s.users.GetByUsername(ctx, strings.ToLower(key))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Caller{}, domain.Unauthenticatedf("unknown user %q", key)
	}
	if err != nil {
		return domain.Caller{}, err
	}
	if !u.Active {
		return domain.Caller{}, domain.Unauthenticatedf("user %s is deactivated", u.Username)
	}

	caller := domain.Caller{UserID: u.ID, Role: u.Role}
	if u.Role == domain.RoleCustomer {
		c, err := s.customers.GetByUserID(ctx, u.ID)
		switch {
		case err == nil:
			caller.CustomerID = c.ID
		case !errors.Is(err, repository.ErrNotFound):
			return domain.Caller{}, err
		}
	}
	return caller, nil
}
