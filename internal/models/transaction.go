package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is a bank or card transaction produced by the ingestion
// pipeline. The categorization engine never creates or deletes transactions,
// it only updates their category binding.
//
// Transactions are identified by the composite key of Identifier and Vendor,
// serialized as "identifier|vendor".
type Transaction struct {
	Identifier    string          `json:"identifier" gorm:"primaryKey" example:"8837164"` // Identifier of the transaction at the vendor
	Vendor        string          `json:"vendor" gorm:"primaryKey" example:"leumi"`       // Institution the transaction was scraped from
	Date          time.Time       `json:"date"`
	Name          string          `json:"name" example:"STARBUCKS TLV"`                   // Display name of the transaction
	Amount        decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)" example:"-32"` // Signed amount, negative for outflows
	AccountNumber string          `json:"accountNumber" example:"12-345-678901"`
	Timestamps

	// Category binding. All four fields are written together.
	CategoryDefinitionID *uint64      `json:"categoryDefinitionId"`
	CategoryType         CategoryKind `json:"categoryType"`
	CategoryName         string       `json:"categoryName"` // Denormalized name of the assigned category
	AutoCategorized      bool         `json:"autoCategorized"`
	Confidence           float64      `json:"confidence" example:"1"`
}

// Timestamps holds the timestamps gorm manages automatically, for models
// whose primary key is not the default ID.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Key returns the composite transaction key.
func (t Transaction) Key() string {
	return t.Identifier + "|" + t.Vendor
}

// ParseKey splits a composite transaction key into identifier and vendor.
func ParseKey(key string) (identifier, vendor string, err error) {
	identifier, vendor, ok := strings.Cut(key, "|")
	if !ok || identifier == "" || vendor == "" {
		return "", "", fmt.Errorf("%q is not a valid transaction key, expected \"identifier|vendor\"", key)
	}

	return identifier, vendor, nil
}

func (t *Transaction) AfterFind(_ *gorm.DB) error {
	t.Date = t.Date.In(time.UTC)
	t.CreatedAt = t.CreatedAt.In(time.UTC)
	t.UpdatedAt = t.UpdatedAt.In(time.UTC)

	return nil
}

func (t *Transaction) BeforeSave(_ *gorm.DB) error {
	t.Name = strings.TrimSpace(t.Name)

	if t.Date.IsZero() {
		t.Date = time.Now().In(time.UTC)
	} else {
		t.Date = t.Date.In(time.UTC)
	}

	if t.Confidence < 0 || t.Confidence > 1 {
		return ErrConfidenceRange
	}

	return nil
}

// Returns all transactions on this instance for export
func (Transaction) Export() (json.RawMessage, error) {
	var transactions []Transaction
	err := DB.Where(&Transaction{}).Find(&transactions).Error
	if err != nil {
		return nil, err
	}

	j, err := json.Marshal(&transactions)
	if err != nil {
		return json.RawMessage{}, err
	}
	return json.RawMessage(j), nil
}
