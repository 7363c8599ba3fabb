package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sangkips/mini-crm/internal/domain/entity"
	domainRepo "github.com/sangkips/mini-crm/internal/domain/repository"
	"github.com/sangkips/mini-crm/internal/infrastructure/database"
	"gorm.io/gorm"
)

const (
	newestFirst  = "created_at DESC, id DESC"
	searchClause = `name_key LIKE ? ESCAPE '\' OR email_key LIKE ? ESCAPE '\'`

	uniqueViolation = "23505"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type customerRepository struct {
	conn database.Connector
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(conn database.Connector) domainRepo.CustomerRepository {
	return &customerRepository{conn: conn}
}

func (r *customerRepository) db(ctx context.Context) (*gorm.DB, error) {
	db, err := r.conn.Acquire()
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return db.WithContext(ctx), nil
}

func (r *customerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	db, err := r.db(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(customer).Error; err != nil {
		if isUniqueViolation(err) {
			return domainRepo.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id uint64) (*entity.Customer, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	var customer entity.Customer
	err = db.First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, limit, offset int) ([]entity.Customer, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	var customers []entity.Customer
	err = db.Order(newestFirst).
		Limit(limit).
		Offset(offset).
		Find(&customers).Error
	return customers, err
}

func (r *customerRepository) Search(ctx context.Context, term string, limit, offset int) ([]entity.Customer, error) {
	db, err := r.db(ctx)
	if err != nil {
		return nil, err
	}

	pattern := likePattern(term)
	var customers []entity.Customer
	err = db.Where(searchClause, pattern, pattern).
		Order(newestFirst).
		Limit(limit).
		Offset(offset).
		Find(&customers).Error
	return customers, err
}

func (r *customerRepository) Count(ctx context.Context, term string) (int64, error) {
	db, err := r.db(ctx)
	if err != nil {
		return 0, err
	}

	query := db.Model(&entity.Customer{})
	if term != "" {
		pattern := likePattern(term)
		query = query.Where(searchClause, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *entity.Customer) (bool, error) {
	db, err := r.db(ctx)
	if err != nil {
		return false, err
	}

	var phone interface{}
	if customer.Phone != nil {
		phone = *customer.Phone
	}
	customer.SetSearchKeys()
	now := time.Now()

	// created_at is never assigned after insert
	result := db.Model(&entity.Customer{}).
		Where("id = ?", customer.ID).
		Updates(map[string]interface{}{
			"name":       customer.Name,
			"email":      customer.Email,
			"phone":      phone,
			"name_key":   customer.NameKey,
			"email_key":  customer.EmailKey,
			"updated_at": now,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return false, domainRepo.ErrDuplicateEmail
		}
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	customer.UpdatedAt = now
	return true, nil
}

func (r *customerRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	db, err := r.db(ctx)
	if err != nil {
		return false, err
	}

	result := db.Delete(&entity.Customer{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *customerRepository) EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error) {
	db, err := r.db(ctx)
	if err != nil {
		return false, err
	}

	query := db.Model(&entity.Customer{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// likePattern builds a case-folded %term% pattern with LIKE wildcards escaped
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(entity.FoldCase(term)) + "%"
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
