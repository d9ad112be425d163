package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/pkg/validator"
)

// Input carries the writable fields of an address
type Input struct {
	Type       string
	Street     string
	City       string
	State      string
	Country    string
	PostalCode string
	IsDefault  bool
}

func (in Input) applyTo(a *domain.Address) {
	a.Type = in.Type
	a.Street = in.Street
	a.City = in.City
	a.State = in.State
	a.Country = in.Country
	a.PostalCode = in.PostalCode
}

// Service manages a user's addresses. Every operation is scoped to the
// owner; someone else's address is reported as not found.
type Service struct {
	repo   domain.AddressRepository
	logger *logger.Logger
}

// NewService creates a new address service
func NewService(repo domain.AddressRepository, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: log,
	}
}

// List returns the user's addresses, defaults first then newest
func (s *Service) List(ctx context.Context, userID string) ([]*domain.Address, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list addresses", err)
		return nil, err
	}
	return addresses, nil
}

// Create stores a new address and, when requested, makes it the default
// of its type. A failed default switch removes the inserted address again.
func (s *Service) Create(ctx context.Context, userID string, in Input) (*domain.Address, error) {
	address := &domain.Address{UserID: userID}
	in.applyTo(address)

	if err := s.validate(address); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, address); err != nil {
		s.logger.Error("Failed to create address", err)
		return nil, err
	}

	if in.IsDefault {
		if err := s.repo.SetDefault(ctx, userID, address.Type, address.ID); err != nil {
			s.logger.Error("Failed to make new address the default", err)
			// the address is only kept when the whole request succeeds
			if delErr := s.repo.Delete(ctx, address.ID, userID); delErr != nil {
				s.logger.With("address_id", address.ID).Error("Failed to remove address after default switch failed", delErr)
			}
			return nil, err
		}
		address.IsDefault = true
	}

	s.logger.WithFields(map[string]interface{}{
		"address_id": address.ID,
		"user_id":    userID,
		"is_default": address.IsDefault,
	}).Info("Address created successfully")

	return address, nil
}

// Update replaces the fields of one of the user's addresses
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (*domain.Address, error) {
	address, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	in.applyTo(address)
	if err := s.validate(address); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, address); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to update address", err)
		}
		return nil, err
	}

	if in.IsDefault && !address.IsDefault {
		return s.SetDefault(ctx, userID, id)
	}

	s.logger.WithFields(map[string]interface{}{
		"address_id": id,
		"user_id":    userID,
	}).Info("Address updated successfully")

	return address, nil
}

// Delete removes one of the user's addresses
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to delete address", err)
		}
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"address_id": id,
		"user_id":    userID,
	}).Info("Address deleted successfully")

	return nil
}

// SetDefault makes id the only default address of its type for the user
func (s *Service) SetDefault(ctx context.Context, userID, id string) (*domain.Address, error) {
	address, err := s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetDefault(ctx, userID, address.Type, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Failed to set default address", err)
		}
		return nil, err
	}

	address, err = s.get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"address_id": id,
		"user_id":    userID,
		"type":       address.Type,
	}).Info("Default address set")

	return address, nil
}

func (s *Service) get(ctx context.Context, userID, id string) (*domain.Address, error) {
	address, err := s.repo.GetForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: address", domain.ErrNotFound)
		}
		s.logger.Error("Failed to get address", err)
		return nil, err
	}
	return address, nil
}

func (s *Service) validate(address *domain.Address) error {
	if err := validator.Get().Struct(address); err != nil {
		s.logger.Warnf("Address validation failed: %s", validator.Describe(err))
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, validator.Describe(err))
	}
	return nil
}
