package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sangkips/mini-crm/internal/domain/entity"
	"github.com/sangkips/mini-crm/internal/domain/repository"
	"github.com/sangkips/mini-crm/pkg/apperror"
	"github.com/sangkips/mini-crm/pkg/pagination"
	"go.uber.org/zap"
)

// ExportLimit caps the number of rows a single export may return
const ExportLimit = 10000

const (
	msgNameRequired       = "Name is required and cannot be empty."
	msgEmailRequired      = "Email is required and cannot be empty."
	msgEmailInvalid       = "Invalid email format."
	msgEmailExists        = "Email already exists."
	msgEmailExistsForeign = "Email already exists for another customer."
)

// CustomerService handles customer-related operations
type CustomerService struct {
	customerRepo repository.CustomerRepository
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository, logger *zap.Logger) *CustomerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{
		customerRepo: customerRepo,
		validate:     validator.New(),
		logger:       logger,
	}
}

// CustomerInput carries the three business fields of a customer
type CustomerInput struct {
	Name  string
	Email string
	Phone *string
}

// ValidateCustomerInput trims the fields and checks them.
// A blank phone is normalized to nil.
func (s *CustomerService) ValidateCustomerInput(input CustomerInput) (CustomerInput, error) {
	out := CustomerInput{
		Name:  strings.TrimSpace(input.Name),
		Email: strings.TrimSpace(input.Email),
	}

	if out.Name == "" {
		return out, apperror.NewValidationError(msgNameRequired)
	}
	if out.Email == "" {
		return out, apperror.NewValidationError(msgEmailRequired)
	}
	if !s.validEmail(out.Email) {
		return out, apperror.NewValidationError(msgEmailInvalid)
	}

	if input.Phone != nil {
		if phone := strings.TrimSpace(*input.Phone); phone != "" {
			out.Phone = &phone
		}
	}
	return out, nil
}

// validEmail requires a parseable address whose domain contains a dot
func (s *CustomerService) validEmail(email string) bool {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at < 1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

// ListPage returns one page of customers, newest first
func (s *CustomerService) ListPage(ctx context.Context, limit, offset int) ([]entity.Customer, error) {
	customers, err := s.customerRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, s.storageError("list customers", err)
	}
	return customers, nil
}

// GetByID returns nil without error when the customer does not exist
func (s *CustomerService) GetByID(ctx context.Context, id uint64) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storageError("get customer", err, zap.Uint64("customer_id", id))
	}
	return customer, nil
}

// Search matches term against name and email, case-insensitively
func (s *CustomerService) Search(ctx context.Context, term string, limit, offset int) ([]entity.Customer, error) {
	customers, err := s.customerRepo.Search(ctx, term, limit, offset)
	if err != nil {
		return nil, s.storageError("search customers", err, zap.String("search", term))
	}
	return customers, nil
}

// Count returns the number of customers matching term, or all of them for a blank term.
// A failing query is logged and counted as zero.
func (s *CustomerService) Count(ctx context.Context, term string) int64 {
	total, _ := s.count(ctx, term)
	return total
}

func (s *CustomerService) count(ctx context.Context, term string) (int64, bool) {
	total, err := s.customerRepo.Count(ctx, strings.TrimSpace(term))
	if err != nil {
		s.logger.Error("Failed to count customers", zap.String("search", term), zap.Error(err))
		return 0, false
	}
	return total, true
}

// Create validates the input and inserts a new customer, returning its id
func (s *CustomerService) Create(ctx context.Context, input CustomerInput) (uint64, error) {
	input, err := s.ValidateCustomerInput(input)
	if err != nil {
		return 0, err
	}

	exists, err := s.customerRepo.EmailExists(ctx, input.Email, 0)
	if err != nil {
		return 0, s.storageError("check email", err)
	}
	if exists {
		return 0, apperror.NewDuplicateEmailError(msgEmailExists)
	}

	customer := &entity.Customer{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return 0, apperror.NewDuplicateEmailError(msgEmailExists)
		}
		return 0, s.storageError("create customer", err)
	}

	s.logger.Info("Customer created", zap.Uint64("customer_id", customer.ID))
	return customer.ID, nil
}

// Update replaces all business fields of customer id.
// It reports false when no customer has that id.
func (s *CustomerService) Update(ctx context.Context, id uint64, input CustomerInput) (bool, error) {
	input, err := s.ValidateCustomerInput(input)
	if err != nil {
		return false, err
	}

	exists, err := s.customerRepo.EmailExists(ctx, input.Email, id)
	if err != nil {
		return false, s.storageError("check email", err, zap.Uint64("customer_id", id))
	}
	if exists {
		return false, apperror.NewDuplicateEmailError(msgEmailExistsForeign)
	}

	updated, err := s.customerRepo.Update(ctx, &entity.Customer{
		ID:    id,
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return false, apperror.NewDuplicateEmailError(msgEmailExistsForeign)
		}
		return false, s.storageError("update customer", err, zap.Uint64("customer_id", id))
	}
	return updated, nil
}

// Delete removes customer id, reporting false when nothing matched
func (s *CustomerService) Delete(ctx context.Context, id uint64) (bool, error) {
	deleted, err := s.customerRepo.Delete(ctx, id)
	if err != nil {
		return false, s.storageError("delete customer", err, zap.Uint64("customer_id", id))
	}
	return deleted, nil
}

// CustomerPage is one rendered page of the customer list
type CustomerPage struct {
	*pagination.PaginatedResult[entity.Customer]
	Search string
	// CountDegraded is set when the total could not be counted and is shown as zero
	CountDegraded bool
}

// ListCustomers resolves a list page, searching when search is non-blank
func (s *CustomerService) ListCustomers(ctx context.Context, params *pagination.PaginationParams, search string) (*CustomerPage, error) {
	search = strings.TrimSpace(search)
	params.Validate()

	var (
		customers []entity.Customer
		err       error
	)
	if search != "" {
		customers, err = s.Search(ctx, search, params.PerPage, params.Offset())
	} else {
		customers, err = s.ListPage(ctx, params.PerPage, params.Offset())
	}
	if err != nil {
		return nil, err
	}

	total, ok := s.count(ctx, search)
	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return &CustomerPage{
		PaginatedResult: pagination.NewPaginatedResult(customers, pag),
		Search:          search,
		CountDegraded:   !ok,
	}, nil
}

// ExportCustomers returns up to ExportLimit customers, filtered when search is non-blank
func (s *CustomerService) ExportCustomers(ctx context.Context, search string) ([]entity.Customer, error) {
	if search = strings.TrimSpace(search); search != "" {
		return s.Search(ctx, search, ExportLimit, 0)
	}
	return s.ListPage(ctx, ExportLimit, 0)
}

func (s *CustomerService) storageError(op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("op", op), zap.Error(err))
	s.logger.Error("Customer storage failure", fields...)
	return apperror.NewStorageError(err)
}
