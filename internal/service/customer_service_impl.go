package service

import (
	"context"
	"errors"
	"strings"

	"github.com/alexanderramin/roofline/internal/domain"
	"github.com/alexanderramin/roofline/internal/repository"
	"github.com/google/uuid"
)

type customerService struct {
	customers repository.CustomerRepo
	users     repository.UserRepo
	opts      Options
}

func NewCustomerService(customers repository.CustomerRepo, users repository.UserRepo, opts Options) CustomerService {
	return &customerService{customers: customers, users: users, opts: opts.withDefaults()}
}

// List is open to owners and employees; crews need customer contact details.
func (s *customerService) List(ctx context.Context, caller domain.Caller) ([]*domain.Customer, error) {
	if err := caller.Require(domain.RoleOwner, domain.RoleEmployee); err != nil {
		return nil, err
	}
	out, err := s.customers.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.Customer{}
	}
	return out, nil
}

func (s *customerService) Get(ctx context.Context, caller domain.Caller, id string) (*domain.Customer, error) {
	if caller.IsCustomer() && caller.CustomerID != id {
		return nil, domain.Forbiddenf("you may only view your own customer record")
	}
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "customer %s not found", id)
	}
	return c, nil
}

func (s *customerService) Create(ctx context.Context, caller domain.Caller, c *domain.Customer) error {
	if err := caller.Require(domain.RoleOwner); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	if c.Status == "" {
		c.Status = domain.CustomerActive
	}
	now := s.opts.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.checkLinkedUser(ctx, c.UserID); err != nil {
		return err
	}
	return s.customers.Create(ctx, c)
}

func (s *customerService) Update(ctx context.Context, caller domain.Caller, id string, p CustomerPatch) (*domain.Customer, error) {
	if err := caller.Require(domain.RoleOwner); err != nil {
		return nil, err
	}
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "customer %s not found", id)
	}

	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		c.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	c.Phone = domain.ValueOr(p.Phone, c.Phone)
	c.Address = domain.ValueOr(p.Address, c.Address)
	c.Notes = domain.ValueOr(p.Notes, c.Notes)
	c.Status = domain.ValueOr(p.Status, c.Status)
	if p.UserID != nil {
		if *p.UserID == "" {
			c.UserID = nil
		} else {
			c.UserID = p.UserID
			if err := s.checkLinkedUser(ctx, c.UserID); err != nil {
				return nil, err
			}
		}
	}
	c.UpdatedAt = s.opts.now()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.customers.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *customerService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if err := caller.Require(domain.RoleOwner); err != nil {
		return err
	}
	return notFoundAs(s.customers.Delete(ctx, id), "customer %s not found", id)
}

// checkLinkedUser requires a linked login to be a customer-role user.
func (s *customerService) checkLinkedUser(ctx context.Context, userID *string) error {
	if userID == nil {
		return nil
	}
	u, err := s.users.GetByID(ctx, *userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Validationf("user %s does not exist", *userID)
	}
	if err != nil {
		return err
	}
	if u.Role != domain.RoleCustomer {
		return domain.Validationf("%s is not a customer login", u.Username)
	}
	return nil
}
