package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clientes/internal/models"
	"clientes/internal/repositories"
	"clientes/pkg/brdoc"
	"clientes/pkg/masker"
	"clientes/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// CredentialIssuer provisions and revokes the login attached to a customer.
type CredentialIssuer interface {
	CreateCredential(ctx context.Context, email, secret string) (string, error)
	DeleteCredential(ctx context.Context, uid string) error
}

// EventPublisher announces saved customers to other instances.
type EventPublisher interface {
	PublishCustomerEvent(ev rabbitmq.CustomerEvent) error
}

// AddressFiller completes address fields from the postal code.
type AddressFiller interface {
	Fill(ctx context.Context, form *models.CustomerForm) bool
}

// CustomerServiceConfig wires a CustomerService. Feed, Events and Addresses
// are optional.
type CustomerServiceConfig struct {
	Repo        repositories.CustomerRepository
	Checker     ExistenceChecker
	Credentials CredentialIssuer
	Feed        *CustomerFeed
	Events      EventPublisher
	Addresses   AddressFiller
	Logger      *zap.Logger

	// InstanceID tags published events so an instance can skip its own.
	InstanceID string
	// IDFromTaxID stores new records under their bare tax id digits.
	IDFromTaxID bool
	// AllowOwnEmailOnEdit lets an edited record keep its own e-mail.
	AllowOwnEmailOnEdit bool
}

// CustomerService validates, normalizes and persists customer records.
type CustomerService struct {
	repo        repositories.CustomerRepository
	credentials CredentialIssuer
	feed        *CustomerFeed
	events      EventPublisher
	addresses   AddressFiller
	fields      *FieldValidator
	validate    *validator.Validate
	logger      *zap.Logger
	instanceID  string
	idFromTaxID bool
}

// SaveResult describes a successful save.
type SaveResult struct {
	Customer *models.Customer `json:"customer"`
	Created  bool             `json:"created"`
	Message  string           `json:"message"`
}

// CustomerPage is one page of a customer listing.
type CustomerPage struct {
	Customers []models.Customer `json:"customers"`
	Total     int64             `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(cfg CustomerServiceConfig) (*CustomerService, error) {
	v := validator.New()
	if err := brdoc.RegisterValidations(v); err != nil {
		return nil, fmt.Errorf("failed to register validations: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		repo:        cfg.Repo,
		credentials: cfg.Credentials,
		feed:        cfg.Feed,
		events:      cfg.Events,
		addresses:   cfg.Addresses,
		fields:      NewFieldValidator(cfg.Checker, cfg.AllowOwnEmailOnEdit),
		validate:    v,
		logger:      logger,
		instanceID:  cfg.InstanceID,
		idFromTaxID: cfg.IDFromTaxID,
	}, nil
}

// Fields returns the validator behind the per-field validation map.
func (s *CustomerService) Fields() *FieldValidator {
	return s.fields
}

// Create saves form as a new customer.
func (s *CustomerService) Create(ctx context.Context, form *models.CustomerForm) (*SaveResult, error) {
	return s.Save(ctx, form, nil)
}

// Update saves form over the customer stored under id.
func (s *CustomerService) Update(ctx context.Context, id string, form *models.CustomerForm) (*SaveResult, error) {
	prior, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &SaveError{Kind: KindNotFound, Message: msgNotFound, Err: err}
		}
		return nil, &SaveError{Kind: KindUnknownPersistence, Message: msgUpdateFailed, Err: err}
	}
	return s.Save(ctx, form, prior)
}

// Save runs the save policy. prior is the record being edited, or nil to
// create a new one. Gates run in order and the first failure wins: tax id
// format, tax id uniqueness, e-mail format, e-mail uniqueness. When editing,
// tax id and e-mail come from prior and the form's values are ignored. On
// success the form is reset and listeners are notified.
func (s *CustomerService) Save(ctx context.Context, form *models.CustomerForm, prior *models.Customer) (*SaveResult, error) {
	creating := prior == nil
	failMsg := msgUpdateFailed
	if creating {
		failMsg = msgCreateFailed
	}

	normalized := *form
	normalized.Name = strings.TrimSpace(normalized.Name)
	normalized.Email = strings.TrimSpace(normalized.Email)
	normalized.Phone = brdoc.FormatPhone(normalized.Phone)
	normalized.PostalCode = brdoc.FormatPostalCode(normalized.PostalCode)
	if !creating {
		// Tax id and e-mail are fixed once the record exists.
		normalized.TaxID = prior.TaxID
		normalized.Email = prior.Email
	}

	// The raw tax id is gated before masking so extra digits are rejected
	// rather than truncated away.
	if err := s.gate(ctx, FieldTaxID, normalized.TaxID, prior, KindInvalidTaxID, KindDuplicateTaxID, failMsg); err != nil {
		return nil, err
	}
	if creating {
		normalized.TaxID = brdoc.FormatTaxID(normalized.TaxID)
	}
	if err := s.gate(ctx, FieldEmail, normalized.Email, prior, KindInvalidEmail, KindDuplicateEmail, failMsg); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(normalized); err != nil {
		return nil, &SaveError{Kind: KindInvalidForm, Message: formMessage(err), Err: err}
	}

	if s.addresses != nil && brdoc.IsValidPostalCode(normalized.PostalCode) {
		s.addresses.Fill(ctx, &normalized)
	}

	customer := &models.Customer{
		Name:       normalized.Name,
		Email:      normalized.Email,
		TaxID:      normalized.TaxID,
		Phone:      brdoc.Digits(normalized.Phone),
		PostalCode: brdoc.Digits(normalized.PostalCode),
		State:      normalized.State,
		City:       normalized.City,
		District:   normalized.District,
		Street:     normalized.Street,
		Number:     normalized.Number,
	}

	var err error
	if creating {
		err = s.create(ctx, customer)
	} else {
		customer.ID = prior.ID
		customer.UID = prior.UID
		err = s.replace(ctx, customer)
	}
	if err != nil {
		return nil, err
	}

	*form = models.CustomerForm{}
	s.announce(ctx, customer, creating)

	msg := msgUpdated
	if creating {
		msg = msgCreated
	}
	return &SaveResult{
		Customer: customer,
		Created:  creating,
		Message:  msg + "\n" + customer.Summary(),
	}, nil
}

// gate validates one uniqueness-checked field and converts a failure into a
// SaveError of the matching kind.
func (s *CustomerService) gate(ctx context.Context, field, value string, prior *models.Customer, invalid, duplicate ErrorKind, failMsg string) error {
	res, err := s.fields.ValidateField(ctx, field, value, prior)
	if err != nil {
		s.logger.Error("uniqueness check failed", zap.String("field", field), zap.Error(err))
		return &SaveError{Kind: KindUnknownPersistence, Message: failMsg, Err: err}
	}
	switch {
	case !res.IsValid:
		return &SaveError{Kind: invalid, Message: res.ErrorMessage}
	case res.ExistsConflict:
		return &SaveError{Kind: duplicate, Message: res.ErrorMessage}
	}
	return nil
}

func (s *CustomerService) create(ctx context.Context, customer *models.Customer) error {
	uid, err := s.credentials.CreateCredential(ctx, customer.Email, brdoc.Digits(customer.TaxID))
	if err != nil {
		if code, ok := CredentialCode(err); ok {
			s.logger.Warn("credential rejected", zap.String("code", code), zap.String("email", masker.Email(customer.Email)))
			return &SaveError{Kind: KindCredential, Code: code, Message: CredentialMessage(code), Err: err}
		}
		s.logger.Error("credential issuance failed", zap.Error(err))
		return &SaveError{Kind: KindUnknownPersistence, Message: msgCreateFailed, Err: err}
	}

	customer.UID = uid
	if s.idFromTaxID {
		customer.ID = brdoc.Digits(customer.TaxID)
	}

	if err := s.repo.CreateUnique(ctx, customer); err != nil {
		if derr := s.credentials.DeleteCredential(ctx, uid); derr != nil {
			s.logger.Error("failed to revoke orphaned credential", zap.String("uid", uid), zap.Error(derr))
		}
		return persistenceError(err, msgCreateFailed)
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID),
		zap.String("tax_id", masker.TaxID(customer.TaxID)),
	)
	return nil
}

func (s *CustomerService) replace(ctx context.Context, customer *models.Customer) error {
	if err := s.repo.Replace(ctx, customer); err != nil {
		return persistenceError(err, msgUpdateFailed)
	}
	s.logger.Info("customer updated", zap.String("customer_id", customer.ID))
	return nil
}

// persistenceError maps repository failures onto the save taxonomy. Duplicate
// errors here mean another writer won the race after the gates passed.
func persistenceError(err error, failMsg string) *SaveError {
	switch {
	case errors.Is(err, repositories.ErrDuplicateTaxID), errors.Is(err, repositories.ErrDuplicateID):
		return &SaveError{Kind: KindDuplicateTaxID, Message: msgDuplicateTaxID, Err: err}
	case errors.Is(err, repositories.ErrDuplicateEmail):
		return &SaveError{Kind: KindDuplicateEmail, Message: msgDuplicateEmail, Err: err}
	case errors.Is(err, repositories.ErrNotFound):
		return &SaveError{Kind: KindNotFound, Message: msgNotFound, Err: err}
	default:
		return &SaveError{Kind: KindUnknownPersistence, Message: failMsg, Err: err}
	}
}

func formMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Name":
			return msgRequiredName
		case "Phone":
			return msgInvalidPhone
		case "PostalCode":
			return msgInvalidPostalCode
		}
	}
	return msgInvalidForm
}

// announce refreshes local subscribers and publishes the change. Neither
// can fail the save that already happened.
func (s *CustomerService) announce(ctx context.Context, customer *models.Customer, created bool) {
	if s.feed != nil {
		if err := s.feed.Refresh(ctx); err != nil {
			s.logger.Warn("failed to refresh customer feed", zap.Error(err))
		}
	}
	if s.events == nil {
		return
	}
	evType := rabbitmq.CustomerUpdated
	if created {
		evType = rabbitmq.CustomerCreated
	}
	ev := rabbitmq.CustomerEvent{
		Type:       evType,
		CustomerID: customer.ID,
		Source:     s.instanceID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.PublishCustomerEvent(ev); err != nil {
		s.logger.Warn("failed to publish customer event", zap.String("customer_id", customer.ID), zap.Error(err))
	}
}

// Get returns the customer stored under id.
func (s *CustomerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of customers matching query.
func (s *CustomerService) List(ctx context.Context, query repositories.ListQuery) (*CustomerPage, error) {
	query = query.Normalize()
	customers, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return &CustomerPage{
		Customers: customers,
		Total:     total,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}, nil
}

// HandleRemoteEvent refreshes local subscribers when another instance
// changed the collection.
func (s *CustomerService) HandleRemoteEvent(ctx context.Context, ev rabbitmq.CustomerEvent) error {
	if ev.Source == s.instanceID || s.feed == nil {
		return nil
	}
	return s.feed.Refresh(ctx)
}
