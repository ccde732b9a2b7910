package handlers

import (
	"errors"

	"clientes/internal/middleware"
	"clientes/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AddressHandler resolves postal codes.
type AddressHandler struct {
	service *services.AddressService
	logger  *zap.Logger
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(service *services.AddressService, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{service: service, logger: logger}
}

// RegisterRoutes registers the postal code routes.
func (h *AddressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/postal-codes/:cep", h.HandleLookup)
}

// HandleLookup returns the address of a CEP.
func (h *AddressHandler) HandleLookup(c *fiber.Ctx) error {
	cep := c.Params("cep")
	addr, err := h.service.Lookup(c.UserContext(), cep)
	switch {
	case err == nil:
		return c.JSON(addr)
	case errors.Is(err, services.ErrInvalidPostalCode):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "CEP deve ter 8 dígitos.",
			"kind":    services.KindLookupFailure,
		})
	case errors.Is(err, services.ErrAddressNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "CEP não encontrado.",
			"kind":    services.KindLookupFailure,
		})
	default:
		middleware.Logger(c, h.logger).Warn("postal code lookup failed", zap.String("cep", cep), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Erro ao buscar CEP.",
			"kind":    services.KindLookupFailure,
		})
	}
}
