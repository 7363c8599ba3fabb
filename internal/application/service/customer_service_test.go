package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sangkips/mini-crm/internal/domain/entity"
	"github.com/sangkips/mini-crm/internal/domain/repository"
	infraRepo "github.com/sangkips/mini-crm/internal/infrastructure/repository"
	"github.com/sangkips/mini-crm/internal/testutil"
	"github.com/sangkips/mini-crm/pkg/apperror"
	"github.com/sangkips/mini-crm/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupService(t *testing.T) *CustomerService {
	t.Helper()
	repo := infraRepo.NewCustomerRepository(testutil.SetupTestDB(t))
	return NewCustomerService(repo, zap.NewNop())
}

// mockCustomerRepository is a testify mock of repository.CustomerRepository
type mockCustomerRepository struct {
	mock.Mock
}

func (m *mockCustomerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

func (m *mockCustomerRepository) GetByID(ctx context.Context, id uint64) (*entity.Customer, error) {
	args := m.Called(ctx, id)
	customer, _ := args.Get(0).(*entity.Customer)
	return customer, args.Error(1)
}

func (m *mockCustomerRepository) List(ctx context.Context, limit, offset int) ([]entity.Customer, error) {
	args := m.Called(ctx, limit, offset)
	customers, _ := args.Get(0).([]entity.Customer)
	return customers, args.Error(1)
}

func (m *mockCustomerRepository) Search(ctx context.Context, term string, limit, offset int) ([]entity.Customer, error) {
	args := m.Called(ctx, term, limit, offset)
	customers, _ := args.Get(0).([]entity.Customer)
	return customers, args.Error(1)
}

func (m *mockCustomerRepository) Count(ctx context.Context, term string) (int64, error) {
	args := m.Called(ctx, term)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCustomerRepository) Update(ctx context.Context, customer *entity.Customer) (bool, error) {
	args := m.Called(ctx, customer)
	return args.Bool(0), args.Error(1)
}

func (m *mockCustomerRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockCustomerRepository) EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error) {
	args := m.Called(ctx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

// blindPrecheck hides existing emails from the pre-check, as a concurrent writer would see them
type blindPrecheck struct {
	repository.CustomerRepository
}

func (blindPrecheck) EmailExists(context.Context, string, uint64) (bool, error) {
	return false, nil
}

func assertKind(t *testing.T, err error, kind apperror.Kind, message string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, kind, appErr.Kind)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func TestValidateCustomerInput(t *testing.T) {
	svc := NewCustomerService(nil, nil)

	tests := []struct {
		name    string
		input   CustomerInput
		wantErr string
	}{
		{name: "missing name", input: CustomerInput{Name: "", Email: "a@example.com"}, wantErr: msgNameRequired},
		{name: "blank name", input: CustomerInput{Name: "   ", Email: "a@example.com"}, wantErr: msgNameRequired},
		{name: "missing email", input: CustomerInput{Name: "Jana", Email: ""}, wantErr: msgEmailRequired},
		{name: "blank email", input: CustomerInput{Name: "Jana", Email: " \t "}, wantErr: msgEmailRequired},
		{name: "no at sign", input: CustomerInput{Name: "Jana", Email: "jana.example.com"}, wantErr: msgEmailInvalid},
		{name: "domain without dot", input: CustomerInput{Name: "Jana", Email: "jana@localhost"}, wantErr: msgEmailInvalid},
		{name: "empty local part", input: CustomerInput{Name: "Jana", Email: "@example.com"}, wantErr: msgEmailInvalid},
		{name: "valid", input: CustomerInput{Name: "Jana", Email: "jana@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateCustomerInput(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assertKind(t, err, apperror.KindValidation, tt.wantErr)
		})
	}
}

func TestValidateCustomerInputNormalizes(t *testing.T) {
	svc := NewCustomerService(nil, nil)

	out, err := svc.ValidateCustomerInput(CustomerInput{
		Name:  "  Ján Novák ",
		Email: " jan@example.sk\n",
		Phone: testutil.StringPtr("   "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ján Novák", out.Name)
	assert.Equal(t, "jan@example.sk", out.Email)
	assert.Nil(t, out.Phone)

	out, err = svc.ValidateCustomerInput(CustomerInput{
		Name:  "<b>Ján</b>",
		Email: "jan@example.sk",
		Phone: testutil.StringPtr(" +421 901 234 567 "),
	})
	require.NoError(t, err)
	assert.Equal(t, "<b>Ján</b>", out.Name)
	require.NotNil(t, out.Phone)
	assert.Equal(t, "+421 901 234 567", *out.Phone)
}

func TestCreateThenGetByID(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, CustomerInput{Name: "Jana", Email: "jana@example.com"})
	require.NoError(t, err)
	require.NotZero(t, id)

	customer, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "Jana", customer.Name)
	assert.Equal(t, "jana@example.com", customer.Email)
	assert.True(t, customer.CreatedAt.Equal(customer.UpdatedAt))
}

func TestPhoneRoundTrip(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	withoutPhone, err := svc.Create(ctx, CustomerInput{Name: "No Phone", Email: "nophone@example.com"})
	require.NoError(t, err)
	withPhone, err := svc.Create(ctx, CustomerInput{
		Name:  "Phone",
		Email: "phone@example.com",
		Phone: testutil.StringPtr("+421 901 234 567"),
	})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, withoutPhone)
	require.NoError(t, err)
	assert.Nil(t, got.Phone)

	got, err = svc.GetByID(ctx, withPhone)
	require.NoError(t, err)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "+421 901 234 567", *got.Phone)
}

func TestCreateRejectsInvalidInputWithoutWriting(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CustomerInput{Name: " ", Email: "jana@example.com"})
	assertKind(t, err, apperror.KindValidation, msgNameRequired)

	_, err = svc.Create(ctx, CustomerInput{Name: "Jana", Email: "not-an-email"})
	assertKind(t, err, apperror.KindValidation, msgEmailInvalid)

	assert.Equal(t, int64(0), svc.Count(ctx, ""))
}

func TestDuplicateEmailIsRejected(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	aID, err := svc.Create(ctx, CustomerInput{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	bID, err := svc.Create(ctx, CustomerInput{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CustomerInput{Name: "C", Email: "a@example.com"})
	assertKind(t, err, apperror.KindDuplicateEmail, msgEmailExists)

	before, err := svc.GetByID(ctx, bID)
	require.NoError(t, err)

	ok, err := svc.Update(ctx, bID, CustomerInput{Name: "B renamed", Email: "a@example.com"})
	assert.False(t, ok)
	assertKind(t, err, apperror.KindDuplicateEmail, msgEmailExistsForeign)

	after, err := svc.GetByID(ctx, bID)
	require.NoError(t, err)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Email, after.Email)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))

	a, err := svc.GetByID(ctx, aID)
	require.NoError(t, err)
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, int64(2), svc.Count(ctx, ""))
}

func TestUpdateKeepsOwnEmail(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, CustomerInput{Name: "Jana", Email: "jana@example.com"})
	require.NoError(t, err)

	ok, err := svc.Update(ctx, id, CustomerInput{Name: "Jana Nová", Email: "jana@example.com"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateMissingCustomerReportsFalse(t *testing.T) {
	svc := setupService(t)

	ok, err := svc.Update(context.Background(), 777, CustomerInput{Name: "Ghost", Email: "ghost@example.com"})

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteMissingIsRepeatable(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := svc.Delete(ctx, 31337)
		assert.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestConstraintRejectsWriterThatPassedPrecheck(t *testing.T) {
	provider := testutil.SetupTestDB(t)
	repo := infraRepo.NewCustomerRepository(provider)
	ctx := context.Background()

	first := NewCustomerService(repo, zap.NewNop())
	racer := NewCustomerService(blindPrecheck{repo}, zap.NewNop())

	_, err := first.Create(ctx, CustomerInput{Name: "First", Email: "race@example.com"})
	require.NoError(t, err)

	_, err = racer.Create(ctx, CustomerInput{Name: "Second", Email: "race@example.com"})
	assertKind(t, err, apperror.KindDuplicateEmail, msgEmailExists)

	otherID, err := first.Create(ctx, CustomerInput{Name: "Other", Email: "other@example.com"})
	require.NoError(t, err)
	_, err = racer.Update(ctx, otherID, CustomerInput{Name: "Other", Email: "race@example.com"})
	assertKind(t, err, apperror.KindDuplicateEmail, msgEmailExistsForeign)

	assert.Equal(t, int64(2), first.Count(ctx, ""))
}

func TestEndToEndLifecycle(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	aID, err := svc.Create(ctx, CustomerInput{Name: "Jana", Email: "jana@example.com"})
	require.NoError(t, err)
	original, err := svc.GetByID(ctx, aID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, CustomerInput{Name: "B", Email: "jana@example.com"})
	assertKind(t, err, apperror.KindDuplicateEmail, "")

	unaffected, err := svc.GetByID(ctx, aID)
	require.NoError(t, err)
	assert.Equal(t, "Jana", unaffected.Name)

	time.Sleep(5 * time.Millisecond)
	ok, err := svc.Update(ctx, aID, CustomerInput{Name: "Jana", Email: "jana.new@example.com"})
	require.NoError(t, err)
	require.True(t, ok)

	updated, err := svc.GetByID(ctx, aID)
	require.NoError(t, err)
	assert.Equal(t, "jana.new@example.com", updated.Email)
	assert.True(t, updated.CreatedAt.Equal(original.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(original.UpdatedAt))

	ok, err = svc.Delete(ctx, aID)
	require.NoError(t, err)
	require.True(t, ok)

	gone, err := svc.GetByID(ctx, aID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestListCustomersPaginates(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Create(ctx, CustomerInput{Name: "Customer", Email: email})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	page, err := svc.ListCustomers(ctx, &pagination.PaginationParams{Page: 2, PerPage: 2}, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a@example.com", page.Items[0].Email)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.False(t, page.CountDegraded)

	found, err := svc.ListCustomers(ctx, &pagination.PaginationParams{Page: 1, PerPage: 10}, "  B@EXAMPLE ")
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "B@EXAMPLE", found.Search)
	assert.Equal(t, int64(1), found.Pagination.Total)
}

func TestSearchIgnoresCase(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CustomerInput{Name: "Ján Novák", Email: "jan@example.sk"})
	require.NoError(t, err)

	for _, term := range []string{"novák", "NOVÁK", "ová"} {
		found, err := svc.Search(ctx, term, 10, 0)
		require.NoError(t, err)
		assert.Len(t, found, 1, "term %q", term)
	}
}

func TestSearchMatchesUppercaseStoredName(t *testing.T) {
	provider := testutil.SetupTestDB(t)
	svc := NewCustomerService(infraRepo.NewCustomerRepository(provider), zap.NewNop())
	ctx := context.Background()

	seeded := testutil.SeedCustomer(t, provider, "JÁN NOVÁK", "jan@example.sk", nil)

	for _, term := range []string{"novák", "NOVÁK", "ová"} {
		found, err := svc.Search(ctx, term, 10, 0)
		require.NoError(t, err)
		require.Len(t, found, 1, "term %q", term)
		assert.Equal(t, seeded.ID, found[0].ID)
		assert.Equal(t, int64(1), svc.Count(ctx, term), "term %q", term)
	}
}

func TestListCustomersCapsHugePage(t *testing.T) {
	repo := new(mockCustomerRepository)
	repo.On("List", mock.Anything, 10, (pagination.MaxPage-1)*10).Return([]entity.Customer{}, nil)
	repo.On("Count", mock.Anything, "").Return(int64(3), nil)
	svc := NewCustomerService(repo, zap.NewNop())

	page, err := svc.ListCustomers(context.Background(), &pagination.PaginationParams{Page: math.MaxInt, PerPage: 10}, "")

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, pagination.MaxPage, page.Pagination.CurrentPage)
	repo.AssertExpectations(t)
}

func TestCountFailureDegradesToZero(t *testing.T) {
	repo := new(mockCustomerRepository)
	repo.On("List", mock.Anything, 10, 0).Return([]entity.Customer{{ID: 1, Name: "Jana", Email: "jana@example.com"}}, nil)
	repo.On("Count", mock.Anything, "").Return(int64(0), errors.New("relation does not exist"))
	svc := NewCustomerService(repo, zap.NewNop())

	assert.Equal(t, int64(0), svc.Count(context.Background(), ""))

	page, err := svc.ListCustomers(context.Background(), &pagination.PaginationParams{Page: 1, PerPage: 10}, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(0), page.Pagination.Total)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	assert.True(t, page.CountDegraded)
	repo.AssertExpectations(t)
}

func TestStorageFailuresAreHidden(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	repo := new(mockCustomerRepository)
	repo.On("List", mock.Anything, mock.Anything, mock.Anything).Return(nil, cause)
	repo.On("GetByID", mock.Anything, uint64(1)).Return(nil, cause)
	repo.On("EmailExists", mock.Anything, "jana@example.com", mock.Anything).Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(cause)
	repo.On("Delete", mock.Anything, uint64(1)).Return(false, cause)
	svc := NewCustomerService(repo, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ListPage(ctx, 10, 0)
	assertKind(t, err, apperror.KindStorageUnavailable, apperror.GenericMessage)
	assert.ErrorIs(t, err, cause)

	_, err = svc.GetByID(ctx, 1)
	assertKind(t, err, apperror.KindStorageUnavailable, apperror.GenericMessage)

	_, err = svc.Create(ctx, CustomerInput{Name: "Jana", Email: "jana@example.com"})
	assertKind(t, err, apperror.KindStorageUnavailable, apperror.GenericMessage)
	assert.NotContains(t, err.Error(), "10.0.0.5")

	_, err = svc.Delete(ctx, 1)
	assertKind(t, err, apperror.KindStorageUnavailable, apperror.GenericMessage)

	_, err = svc.ExportCustomers(ctx, "")
	assertKind(t, err, apperror.KindStorageUnavailable, "")
}

func TestExportCustomersCapsRows(t *testing.T) {
	repo := new(mockCustomerRepository)
	repo.On("List", mock.Anything, ExportLimit, 0).Return([]entity.Customer{}, nil).Once()
	repo.On("Search", mock.Anything, "nov", ExportLimit, 0).Return([]entity.Customer{}, nil).Once()
	svc := NewCustomerService(repo, zap.NewNop())

	_, err := svc.ExportCustomers(context.Background(), "   ")
	require.NoError(t, err)
	_, err = svc.ExportCustomers(context.Background(), " nov ")
	require.NoError(t, err)

	repo.AssertExpectations(t)
}
