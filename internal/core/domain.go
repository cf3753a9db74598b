package core

import (
	"errors"
	"strings"
	"time"
)

const (
	MethodCash      PaymentMethod = "cash"
	MethodBank      PaymentMethod = "bank"
	MethodOnline    PaymentMethod = "online"
	MethodJazzCash  PaymentMethod = "jazzcash"
	MethodEasypaisa PaymentMethod = "easypaisa"
	MethodOther     PaymentMethod = "other"
)

const (
	CategorySupplies    ExpenseCategory = "supplies"
	CategoryFuel        ExpenseCategory = "fuel"
	CategoryMaintenance ExpenseCategory = "maintenance"
	CategorySalaries    ExpenseCategory = "salaries"
	CategoryRent        ExpenseCategory = "rent"
	CategoryUtilities   ExpenseCategory = "utilities"
	CategoryOther       ExpenseCategory = "other"
)

const (
	StatusPending PaymentStatus = "pending"
	StatusPartial PaymentStatus = "partial"
	StatusFull    PaymentStatus = "full"
)

type (
	PaymentMethod   string
	ExpenseCategory string
	PaymentStatus   string

	Customer struct {
		ID         string    `json:"id"`
		FlatNumber string    `json:"flatNumber"`
		Name       string    `json:"name"`
		Phone      string    `json:"phone"`
		Rate       Money     `json:"rate"` // per bottle
		CreatedAt  time.Time `json:"createdAt"`
	}

	// Delivery keeps the customer name and amount captured when it was logged.
	Delivery struct {
		ID           string    `json:"id"`
		Date         Date      `json:"date"`
		FlatNumber   string    `json:"flatNumber"`
		CustomerName string    `json:"customerName"`
		Bottles      int       `json:"bottles"`
		Empties      int       `json:"empties"`
		Note         string    `json:"note"`
		Amount       Money     `json:"amount"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// Payment is an immutable event: TotalBill, RemainingBalance and Status
	// describe the ledger as observed when the payment was recorded.
	Payment struct {
		ID               string        `json:"id"`
		Date             Date          `json:"date"`
		FlatNumber       string        `json:"flatNumber"`
		CustomerName     string        `json:"customerName"`
		TotalBill        Money         `json:"totalBill"`
		AmountReceived   Money         `json:"amountReceived"`
		RemainingBalance Money         `json:"remainingBalance"`
		Method           PaymentMethod `json:"paymentMethod"`
		Status           PaymentStatus `json:"status"`
		Note             string        `json:"note"`
		CreatedAt        time.Time     `json:"createdAt"`
	}

	Expense struct {
		ID          string          `json:"id"`
		Date        Date            `json:"date"`
		Category    ExpenseCategory `json:"category"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Method      PaymentMethod   `json:"paymentMethod"`
		Note        string          `json:"note"`
		CreatedAt   time.Time       `json:"createdAt"`
	}
)

var (
	ErrEmptyFlatNumber  = errors.New("empty flat number")
	ErrEmptyName        = errors.New("empty customer name")
	ErrInvalidRate      = errors.New("rate must be positive")
	ErrInvalidQuantity  = errors.New("bottles delivered must be positive")
	ErrInvalidEmpties   = errors.New("empties collected cannot be negative")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMethod    = errors.New("invalid payment method")
	ErrInvalidCategory  = errors.New("invalid expense category")
	ErrEmptyDescription = errors.New("empty description")
	ErrZeroDate         = errors.New("date cannot be zero")
)

// PaymentMethods lists every accepted payment method in display order.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{MethodCash, MethodBank, MethodOnline, MethodJazzCash, MethodEasypaisa, MethodOther}
}

// ExpenseCategories lists every expense category in display order.
func ExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{
		CategorySupplies, CategoryFuel, CategoryMaintenance, CategorySalaries,
		CategoryRent, CategoryUtilities, CategoryOther,
	}
}

func (m PaymentMethod) IsValid() bool {
	for _, v := range PaymentMethods() {
		if m == v {
			return true
		}
	}
	return false
}

func (c ExpenseCategory) IsValid() bool {
	for _, v := range ExpenseCategories() {
		if c == v {
			return true
		}
	}
	return false
}

// NormalizeFlat is the comparison form of a flat number.
func NormalizeFlat(flat string) string {
	return strings.ToLower(strings.TrimSpace(flat))
}

// SameFlat reports whether two flat numbers identify the same unit.
func SameFlat(a, b string) bool {
	return NormalizeFlat(a) == NormalizeFlat(b)
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.FlatNumber) == "" {
		return ErrEmptyFlatNumber
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Rate.Cents <= 0 {
		return ErrInvalidRate
	}
	return nil
}

func (d Delivery) Validate() error {
	if d.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(d.FlatNumber) == "" {
		return ErrEmptyFlatNumber
	}
	if d.Bottles <= 0 {
		return ErrInvalidQuantity
	}
	if d.Empties < 0 {
		return ErrInvalidEmpties
	}
	return nil
}

func (p Payment) Validate() error {
	if p.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(p.FlatNumber) == "" {
		return ErrEmptyFlatNumber
	}
	if err := p.AmountReceived.Validate(); err != nil {
		return err
	}
	if !p.Method.IsValid() {
		return ErrInvalidMethod
	}
	return nil
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Method.IsValid() {
		return ErrInvalidMethod
	}
	return nil
}
