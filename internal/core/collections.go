package core

import "time"

// Collections is the full record set of one business.
type Collections struct {
	Customers  []Customer `json:"customers"`
	Deliveries []Delivery `json:"deliveries"`
	Payments   []Payment  `json:"payments"`
	Expenses   []Expense  `json:"expenses"`
	LastSaved  time.Time  `json:"lastSaved"`
}

// EmptyCollections returns collections with non-nil, empty slices so they
// encode as [] rather than null.
func EmptyCollections() Collections {
	return Collections{
		Customers:  []Customer{},
		Deliveries: []Delivery{},
		Payments:   []Payment{},
		Expenses:   []Expense{},
	}
}

// Normalize replaces nil slices with empty ones.
func (c Collections) Normalize() Collections {
	if c.Customers == nil {
		c.Customers = []Customer{}
	}
	if c.Deliveries == nil {
		c.Deliveries = []Delivery{}
	}
	if c.Payments == nil {
		c.Payments = []Payment{}
	}
	if c.Expenses == nil {
		c.Expenses = []Expense{}
	}
	return c
}

// FindCustomerByFlat returns the customer whose flat matches case-insensitively.
func (c Collections) FindCustomerByFlat(flat string) (Customer, bool) {
	for _, cu := range c.Customers {
		if SameFlat(cu.FlatNumber, flat) {
			return cu, true
		}
	}
	return Customer{}, false
}

// FindCustomer returns the customer with the given id.
func (c Collections) FindCustomer(id string) (Customer, bool) {
	for _, cu := range c.Customers {
		if cu.ID == id {
			return cu, true
		}
	}
	return Customer{}, false
}
