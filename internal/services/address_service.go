package services

import (
	"context"
	"errors"
	"fmt"

	"clientes/internal/cache"
	"clientes/internal/models"
	"clientes/pkg/brdoc"
	"clientes/pkg/viacep"

	"go.uber.org/zap"
)

var (
	ErrInvalidPostalCode = errors.New("postal code must have 8 digits")
	ErrAddressNotFound   = errors.New("address not found for postal code")
	ErrLookupFailed      = errors.New("postal code lookup failed")
)

// AddressLookup resolves a bare eight digit CEP into an address.
type AddressLookup interface {
	Lookup(ctx context.Context, cep string) (*viacep.Address, error)
}

// AddressService resolves postal codes through a cache in front of ViaCEP.
type AddressService struct {
	lookup AddressLookup
	cache  cache.AddressCache
	logger *zap.Logger
}

// NewAddressService creates a new AddressService. cache may be nil.
func NewAddressService(lookup AddressLookup, c cache.AddressCache, logger *zap.Logger) *AddressService {
	return &AddressService{lookup: lookup, cache: c, logger: logger}
}

// Lookup returns the address for cep, raw or formatted.
func (s *AddressService) Lookup(ctx context.Context, cep string) (*viacep.Address, error) {
	digits := brdoc.Digits(cep)
	if !brdoc.IsValidPostalCode(digits) {
		return nil, ErrInvalidPostalCode
	}

	if s.cache != nil {
		if addr, found, err := s.cache.Get(ctx, digits); err != nil {
			s.logger.Warn("address cache read failed", zap.String("cep", digits), zap.Error(err))
		} else if found {
			return addr, nil
		}
	}

	addr, err := s.lookup.Lookup(ctx, digits)
	if err != nil {
		if errors.Is(err, viacep.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAddressNotFound, digits)
		}
		s.logger.Warn("postal code lookup failed", zap.String("cep", digits), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, digits, addr); err != nil {
			s.logger.Warn("address cache write failed", zap.String("cep", digits), zap.Error(err))
		}
	}
	return addr, nil
}

// Fill completes the address fields of form from its postal code. Empty
// lookup fields keep what the form already had. Any lookup failure leaves
// the form unchanged and is reported as false.
func (s *AddressService) Fill(ctx context.Context, form *models.CustomerForm) bool {
	addr, err := s.Lookup(ctx, form.PostalCode)
	if err != nil {
		return false
	}
	form.State = firstNonEmpty(addr.State, form.State)
	form.City = firstNonEmpty(addr.City, form.City)
	form.District = firstNonEmpty(addr.District, form.District)
	form.Street = firstNonEmpty(addr.Street, form.Street)
	return true
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
