package entity

import (
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// Customer represents a customer in the CRM
type Customer struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null;uniqueIndex:idx_customers_email" json:"email"`
	Phone     *string   `gorm:"size:50" json:"phone,omitempty"`
	NameKey   string    `gorm:"type:text;not null;default:''" json:"-"`
	EmailKey  string    `gorm:"type:text;not null;default:''" json:"-"`
	CreatedAt time.Time `gorm:"not null;index:idx_customers_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// BeforeSave refreshes the search keys from name and email
func (c *Customer) BeforeSave(tx *gorm.DB) error {
	c.SetSearchKeys()
	return nil
}

// SetSearchKeys derives the case-folded copies of name and email that search matches against
func (c *Customer) SetSearchKeys() {
	c.NameKey = FoldCase(c.Name)
	c.EmailKey = FoldCase(c.Email)
}

// FoldCase applies Unicode case folding, so "NOVÁK" and "novák" compare equal
func FoldCase(s string) string {
	return cases.Fold().String(s)
}

// PhoneOrEmpty returns the phone number, or an empty string when absent
func (c *Customer) PhoneOrEmpty() string {
	if c.Phone == nil {
		return ""
	}
	return *c.Phone
}
