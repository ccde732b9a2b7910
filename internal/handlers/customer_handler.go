package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clientes/internal/middleware"
	"clientes/internal/models"
	"clientes/internal/repositories"
	"clientes/internal/services"
	"clientes/pkg/brdoc"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const streamHeartbeat = 15 * time.Second

// CustomerHandler handles HTTP requests for customers.
type CustomerHandler struct {
	service *services.CustomerService
	feed    *services.CustomerFeed
	auth    services.AuthStateSource
	logger  *zap.Logger
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(service *services.CustomerService, feed *services.CustomerFeed, auth services.AuthStateSource, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		service: service,
		feed:    feed,
		auth:    auth,
		logger:  logger,
	}
}

// RegisterRoutes registers the customer routes with the Fiber app.
func (h *CustomerHandler) RegisterRoutes(router fiber.Router) {
	customerRoutes := router.Group("/customers")
	customerRoutes.Get("/", h.HandleList)
	customerRoutes.Get("/stream", h.HandleStream)
	customerRoutes.Post("/validate", h.HandleValidate)
	customerRoutes.Post("/format", h.HandleFormat)
	customerRoutes.Get("/:id", h.HandleGet)
	customerRoutes.Post("/", h.HandleCreate)
	customerRoutes.Put("/:id", h.HandleUpdate)
}

// HandleList returns one page of customers.
func (h *CustomerHandler) HandleList(c *fiber.Ctx) error {
	page, err := h.service.List(c.UserContext(), repositories.ListQuery{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", repositories.DefaultPageSize),
		Search:   c.Query("search"),
	})
	if err != nil {
		middleware.Logger(c, h.logger).Error("Error listing customers", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve customers",
			"error":   err.Error(),
		})
	}
	return c.JSON(page)
}

// HandleGet retrieves a single customer by its ID.
func (h *CustomerHandler) HandleGet(c *fiber.Ctx) error {
	id := c.Params("id")
	customer, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Customer with ID %s not found", id),
				"kind":    services.KindNotFound,
			})
		}
		middleware.Logger(c, h.logger).Error("Error getting customer", zap.String("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve customer",
			"error":   err.Error(),
		})
	}
	return c.JSON(customer)
}

// HandleCreate registers a new customer.
func (h *CustomerHandler) HandleCreate(c *fiber.Ctx) error {
	var form models.CustomerForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	res, err := h.service.Create(c.UserContext(), &form)
	if err != nil {
		return h.saveFailed(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// HandleUpdate replaces an existing customer.
func (h *CustomerHandler) HandleUpdate(c *fiber.Ctx) error {
	var form models.CustomerForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	res, err := h.service.Update(c.UserContext(), c.Params("id"), &form)
	if err != nil {
		return h.saveFailed(c, err)
	}
	return c.JSON(res)
}

// ValidateRequest is a form to check field by field. ID names the record
// being edited, if any.
type ValidateRequest struct {
	models.CustomerForm
	ID string `json:"id"`
}

// HandleValidate returns the per-field validation map of a form.
func (h *CustomerHandler) HandleValidate(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	var prior *models.Customer
	if req.ID != "" {
		customer, err := h.service.Get(c.UserContext(), req.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"message": fmt.Sprintf("Customer with ID %s not found", req.ID),
					"kind":    services.KindNotFound,
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not retrieve customer",
				"error":   err.Error(),
			})
		}
		prior = customer
	}

	result, err := h.service.Fields().ValidateForm(c.UserContext(), req.CustomerForm, prior)
	if err != nil {
		middleware.Logger(c, h.logger).Error("Error validating form", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not validate customer",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"valid":  result.Valid(),
		"fields": result,
	})
}

// FormatRequest carries raw input to be masked.
type FormatRequest struct {
	Phone      string `json:"phone"`
	TaxID      string `json:"tax_id"`
	PostalCode string `json:"postal_code"`
}

// HandleFormat applies the display masks to raw input.
func (h *CustomerHandler) HandleFormat(c *fiber.Ctx) error {
	var req FormatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	return c.JSON(FormatRequest{
		Phone:      brdoc.FormatPhone(req.Phone),
		TaxID:      brdoc.FormatTaxID(req.TaxID),
		PostalCode: brdoc.FormatPostalCode(req.PostalCode),
	})
}

// HandleStream pushes the full customer list as server-sent events every
// time it changes. The stream ends when the caller's token signs out.
func (h *CustomerHandler) HandleStream(c *fiber.Ctx) error {
	ctx := c.UserContext()
	snapshot, err := h.feed.Snapshot(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve customers",
			"error":   err.Error(),
		})
	}

	session := services.NewSession(h.auth,
		middleware.LocalString(c, middleware.LocalUserID),
		middleware.LocalString(c, middleware.LocalTokenID))
	session.Init()

	// keep only the newest snapshot when the client falls behind
	updates := make(chan []models.Customer, 1)
	unsubscribe := h.feed.Subscribe(func(list []models.Customer) {
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- list:
		default:
		}
	})

	logger := middleware.Logger(c, h.logger)
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer session.Close()
		defer unsubscribe()

		logger.Info("customer stream opened", zap.String("user_id", session.UserID()))
		if err := writeEvent(w, "customers", snapshot); err != nil {
			return
		}

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()
		for {
			select {
			case list := <-updates:
				if err := writeEvent(w, "customers", list); err != nil {
					logger.Debug("customer stream client gone", zap.Error(err))
					return
				}
			case <-heartbeat.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-session.Done():
				_ = writeEvent(w, "end", fiber.Map{"signed": session.Signed()})
				logger.Info("customer stream closed", zap.String("user_id", session.UserID()))
				return
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}

// saveFailed writes a save failure as {"message", "kind", "code"}.
func (h *CustomerHandler) saveFailed(c *fiber.Ctx, err error) error {
	var saveErr *services.SaveError
	if !errors.As(err, &saveErr) {
		middleware.Logger(c, h.logger).Error("Unexpected save failure", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not save customer",
			"kind":    services.KindUnknownPersistence,
		})
	}

	status := fiber.StatusInternalServerError
	switch saveErr.Kind {
	case services.KindDuplicateTaxID, services.KindDuplicateEmail:
		status = fiber.StatusConflict
	case services.KindInvalidTaxID, services.KindInvalidEmail, services.KindInvalidForm:
		status = fiber.StatusUnprocessableEntity
	case services.KindCredential:
		status = fiber.StatusBadRequest
	case services.KindNotFound:
		status = fiber.StatusNotFound
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger(c, h.logger).Error("Error saving customer", zap.Error(err))
	}

	body := fiber.Map{
		"message": saveErr.Message,
		"kind":    saveErr.Kind,
	}
	if saveErr.Code != "" {
		body["code"] = saveErr.Code
	}
	return c.Status(status).JSON(body)
}
