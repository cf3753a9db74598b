// Package services applies record actions to a business's collections.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"aqualedger/internal/amqp"
	"aqualedger/internal/core"
	"aqualedger/internal/ledger"
	"aqualedger/internal/report"
	"aqualedger/internal/session"
	"aqualedger/internal/store"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicateFlat    = errors.New("a customer with this flat number already exists")
	ErrCustomerNotFound = errors.New("no customer with this flat number")
	ErrNotFound         = errors.New("record not found")
	ErrNotSaved         = errors.New("changes could not be saved")
)

// EventPublisher receives a notification after every successful save.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

type CustomerInput struct {
	FlatNumber string     `json:"flatNumber"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Rate       core.Money `json:"rate"`
}

type DeliveryInput struct {
	Date       core.Date `json:"date"`
	FlatNumber string    `json:"flatNumber"`
	Bottles    int       `json:"bottles"`
	Empties    int       `json:"empties"`
	Note       string    `json:"note"`
}

type PaymentInput struct {
	Date           core.Date          `json:"date"`
	FlatNumber     string             `json:"flatNumber"`
	AmountReceived core.Money         `json:"amountReceived"`
	Method         core.PaymentMethod `json:"paymentMethod"`
	Note           string             `json:"note"`
}

type ExpenseInput struct {
	Date        core.Date            `json:"date"`
	Category    core.ExpenseCategory `json:"category"`
	Description string               `json:"description"`
	Amount      core.Money           `json:"amount"`
	Method      core.PaymentMethod   `json:"paymentMethod"`
	Note        string               `json:"note"`
}

// LedgerService serialises read-modify-write cycles per business so two
// requests in this process cannot overwrite each other's changes.
type LedgerService struct {
	store     *store.Store
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Option func(*LedgerService)

// WithPublisher enables ledger events. A nil publisher is ignored.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *LedgerService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(st *store.Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:  st,
		logger: slog.Default(),
		now:    time.Now,
		locks:  map[string]*sync.Mutex{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *LedgerService) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Snapshot returns the business's current collections.
func (s *LedgerService) Snapshot(ctx context.Context, sess session.Session) core.Collections {
	return s.store.Load(ctx, sess.StorageKey)
}

// current reads the snapshot a write builds on. A failed read aborts the
// write so the stored blob is left as it is.
func (s *LedgerService) current(ctx context.Context, sess session.Session) (core.Collections, error) {
	c, err := s.store.LoadForUpdate(ctx, sess.StorageKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read collections before write",
			"key", sess.StorageKey, "error", err)
		return core.Collections{}, fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	return c, nil
}

func (s *LedgerService) save(ctx context.Context, sess session.Session, upd store.Update, current core.Collections) (core.Collections, error) {
	merged, err := s.store.Save(ctx, sess.StorageKey, upd, current)
	if err != nil {
		return merged, fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	return merged, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// AddCustomer registers a customer. Flat numbers are unique regardless of
// case and surrounding space.
func (s *LedgerService) AddCustomer(ctx context.Context, sess session.Session, in CustomerInput) (core.Customer, error) {
	c := core.Customer{
		ID:         store.NewID(),
		FlatNumber: strings.TrimSpace(in.FlatNumber),
		Name:       strings.TrimSpace(in.Name),
		Phone:      strings.TrimSpace(in.Phone),
		Rate:       in.Rate,
		CreatedAt:  s.now().UTC(),
	}
	if err := c.Validate(); err != nil {
		return core.Customer{}, invalid(err)
	}

	defer s.lock(sess.StorageKey)()
	current, err := s.current(ctx, sess)
	if err != nil {
		return core.Customer{}, err
	}
	if _, exists := current.FindCustomerByFlat(c.FlatNumber); exists {
		return core.Customer{}, fmt.Errorf("%w: %s", ErrDuplicateFlat, c.FlatNumber)
	}

	customers := append(append([]core.Customer{}, current.Customers...), c)
	if _, err := s.save(ctx, sess, store.Update{Customers: &customers}, current); err != nil {
		return core.Customer{}, err
	}
	s.publish(ctx, sess, amqp.EventCustomerCreated, c.ID, c.FlatNumber, core.Money{})
	return c, nil
}

// DeleteCustomer removes the customer together with every delivery and
// payment for its flat in a single write.
func (s *LedgerService) DeleteCustomer(ctx context.Context, sess session.Session, id string) error {
	defer s.lock(sess.StorageKey)()
	current, err := s.current(ctx, sess)
	if err != nil {
		return err
	}
	target, ok := current.FindCustomer(id)
	if !ok {
		return fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}

	customers := make([]core.Customer, 0, len(current.Customers))
	for _, c := range current.Customers {
		if c.ID != id {
			customers = append(customers, c)
		}
	}
	deliveries := make([]core.Delivery, 0, len(current.Deliveries))
	for _, d := range current.Deliveries {
		if !core.SameFlat(d.FlatNumber, target.FlatNumber) {
			deliveries = append(deliveries, d)
		}
	}
	payments := make([]core.Payment, 0, len(current.Payments))
	for _, p := range current.Payments {
		if !core.SameFlat(p.FlatNumber, target.FlatNumber) {
			payments = append(payments, p)
		}
	}

	upd := store.Update{Customers: &customers, Deliveries: &deliveries, Payments: &payments}
	if _, err := s.save(ctx, sess, upd, current); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Customer deleted",
		"flat", target.FlatNumber,
		"deliveries_removed", len(current.Deliveries)-len(deliveries),
		"payments_removed", len(current.Payments)-len(payments))
	s.publish(ctx, sess, amqp.EventCustomerDeleted, id, target.FlatNumber, core.Money{})
	return nil
}

// UpdateCustomerRate changes the rate used for deliveries logged from now
// on. Existing delivery amounts are not touched.
func (s *LedgerService) UpdateCustomerRate(ctx context.Context, sess session.Session, id string, rate core.Money) (core.Customer, error) {
	if rate.Cents <= 0 {
		return core.Customer{}, invalid(core.ErrInvalidRate)
	}

	defer s.lock(sess.StorageKey)()
	current, err := s.current(ctx, sess)
	if err != nil {
		return core.Customer{}, err
	}
	customers := append([]core.Customer{}, current.Customers...)
	for i := range customers {
		if customers[i].ID != id {
			continue
		}
		customers[i].Rate = rate
		if _, err := s.save(ctx, sess, store.Update{Customers: &customers}, current); err != nil {
			return core.Customer{}, err
		}
		return customers[i], nil
	}
	return core.Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
}

// AddDelivery logs a delivery, freezing the customer's name and the amount
// at the current rate.
func (s *LedgerService) AddDelivery(ctx context.Context, sess session.Session, in DeliveryInput) (core.Delivery, error) {
	d := core.Delivery{
		ID:         store.NewID(),
		Date:       in.Date,
		FlatNumber: strings.TrimSpace(in.FlatNumber),
		Bottles:    in.Bottles,
		Empties:    in.Empties,
		Note:       strings.TrimSpace(in.Note),
		CreatedAt:  s.now().UTC(),
	}
	if err := d.Validate(); err != nil {
		return core.Delivery{}, invalid(err)
	}

	defer s.lock(sess.StorageKey)()
	current, err := s.current(ctx, sess)
	if err != nil {
		return core.Delivery{}, err
	}
	customer, ok := current.FindCustomerByFlat(d.FlatNumber)
	if !ok {
		return core.Delivery{}, fmt.Errorf("%w: %s", ErrCustomerNotFound, d.FlatNumber)
	}
	d.FlatNumber = customer.FlatNumber
	d.CustomerName = customer.Name
	d.Amount = customer.Rate.Times(d.Bottles)

	deliveries := append(append([]core.Delivery{}, current.Deliveries...), d)
	if _, err := s.save(ctx, sess, store.Update{Deliveries: &deliveries}, current); err != nil {
		return core.Delivery{}, err
	}
	s.publish(ctx, sess, amqp.EventDeliveryCreated, d.ID, d.FlatNumber, d.Amount)
	return d, nil
}

func (s *LedgerService) DeleteDelivery(ctx context.Context, sess session.Session, id string) error {
	defer s.lock(sess.StorageKey)()
	current, err := s.current(ctx, sess)
	if err != nil {
		return err
	}
	deliveries, removed, ok := without(current.Deliveries, func(d core.Delivery) bool { return d.ID == id })
	if !ok {
		return fmt.Errorf("delivery %s: %w", id, ErrNotFound)
	}
	if _, err := s.save(ctx, sess, store.Update{Deliveries: &deliveries}, current); err != nil {
		return err
	}
	s.publish(ctx, sess, amqp.EventDeliveryDeleted, id, removed.FlatNumber, removed.Amount)
	return nil
}

// RecordPayment stores a payment along with the bill it settled against.
func (s *LedgerService) RecordPayment(ctx context.Context, sess session.Session, in PaymentInput) (core.Payment, error) {
	p := core.Payment{
		ID:             store.NewID(),
		Date:           in.Date,
		FlatNumber:     strings.TrimSpace(in.FlatNumber),
		AmountReceived: in.AmountReceived,
		Method:         in.Method,
		Note:           strings.TrimSpace(in.Note),
		CreatedAt:      s.now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return core.Payment{}, invalid(err)
	}

	defer s.lock(sess.StorageKey)()
	current, err := s.current(ctx, sess)
	if err != nil {
		return core.Payment{}, err
	}
	customer, ok := current.FindCustomerByFlat(p.FlatNumber)
	if !ok {
		return core.Payment{}, fmt.Errorf("%w: %s", ErrCustomerNotFound, p.FlatNumber)
	}
	p.FlatNumber = customer.FlatNumber
	p.CustomerName = customer.Name
	p = ledger.SnapshotPayment(p, ledger.Outstanding(customer.FlatNumber, current.Deliveries, current.Payments))

	payments := append(append([]core.Payment{}, current.Payments...), p)
	if _, err := s.save(ctx, sess, store.Update{Payments: &payments}, current); err != nil {
		return core.Payment{}, err
	}
	s.publish(ctx, sess, amqp.EventPaymentRecorded, p.ID, p.FlatNumber, p.AmountReceived)
	return p, nil
}

func (s *LedgerService) DeletePayment(ctx context.Context, sess session.Session, id string) error {
	defer s.lock(sess.StorageKey)()
	current, err := s.current(ctx, sess)
	if err != nil {
		return err
	}
	payments, removed, ok := without(current.Payments, func(p core.Payment) bool { return p.ID == id })
	if !ok {
		return fmt.Errorf("payment %s: %w", id, ErrNotFound)
	}
	if _, err := s.save(ctx, sess, store.Update{Payments: &payments}, current); err != nil {
		return err
	}
	s.publish(ctx, sess, amqp.EventPaymentDeleted, id, removed.FlatNumber, removed.AmountReceived)
	return nil
}

func (s *LedgerService) AddExpense(ctx context.Context, sess session.Session, in ExpenseInput) (core.Expense, error) {
	e := core.Expense{
		ID:          store.NewID(),
		Date:        in.Date,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Method:      in.Method,
		Note:        strings.TrimSpace(in.Note),
		CreatedAt:   s.now().UTC(),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, invalid(err)
	}

	defer s.lock(sess.StorageKey)()
	current, err := s.current(ctx, sess)
	if err != nil {
		return core.Expense{}, err
	}
	expenses := append(append([]core.Expense{}, current.Expenses...), e)
	if _, err := s.save(ctx, sess, store.Update{Expenses: &expenses}, current); err != nil {
		return core.Expense{}, err
	}
	s.publish(ctx, sess, amqp.EventExpenseCreated, e.ID, "", e.Amount)
	return e, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, sess session.Session, id string) error {
	defer s.lock(sess.StorageKey)()
	current, err := s.current(ctx, sess)
	if err != nil {
		return err
	}
	expenses, removed, ok := without(current.Expenses, func(e core.Expense) bool { return e.ID == id })
	if !ok {
		return fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	if _, err := s.save(ctx, sess, store.Update{Expenses: &expenses}, current); err != nil {
		return err
	}
	s.publish(ctx, sess, amqp.EventExpenseDeleted, id, "", removed.Amount)
	return nil
}

// Restore replaces every collection with the records carried by a backup.
// Every incoming record is validated before anything is written.
func (s *LedgerService) Restore(ctx context.Context, sess session.Session, e report.Export) (core.Collections, error) {
	incoming := e.Collections()
	seen := map[string]bool{}
	for _, c := range incoming.Customers {
		if err := c.Validate(); err != nil {
			return core.Collections{}, invalid(fmt.Errorf("customer %s: %w", c.FlatNumber, err))
		}
		key := core.NormalizeFlat(c.FlatNumber)
		if seen[key] {
			return core.Collections{}, fmt.Errorf("%w: %s", ErrDuplicateFlat, c.FlatNumber)
		}
		seen[key] = true
	}
	for _, d := range incoming.Deliveries {
		if err := d.Validate(); err != nil {
			return core.Collections{}, invalid(fmt.Errorf("delivery %s: %w", d.ID, err))
		}
	}
	for _, p := range incoming.Payments {
		if err := p.Validate(); err != nil {
			return core.Collections{}, invalid(fmt.Errorf("payment %s: %w", p.ID, err))
		}
	}
	for _, x := range incoming.Expenses {
		if err := x.Validate(); err != nil {
			return core.Collections{}, invalid(fmt.Errorf("expense %s: %w", x.ID, err))
		}
	}

	defer s.lock(sess.StorageKey)()
	current, err := s.current(ctx, sess)
	if err != nil {
		return core.Collections{}, err
	}
	merged, err := s.save(ctx, sess, store.All(incoming), current)
	if err != nil {
		return merged, err
	}
	s.logger.InfoContext(ctx, "Collections restored from backup",
		"business", sess.BusinessName,
		"customers", len(merged.Customers),
		"deliveries", len(merged.Deliveries),
		"payments", len(merged.Payments),
		"expenses", len(merged.Expenses))
	s.publish(ctx, sess, amqp.EventDataRestored, "", "", core.Money{})
	return merged, nil
}

// without returns items minus the first element matching, and that element.
func without[T any](items []T, match func(T) bool) ([]T, T, bool) {
	var removed T
	for i, it := range items {
		if match(it) {
			out := make([]T, 0, len(items)-1)
			out = append(out, items[:i]...)
			out = append(out, items[i+1:]...)
			return out, it, true
		}
	}
	return items, removed, false
}

// publish never fails the action; the record is already saved.
func (s *LedgerService) publish(ctx context.Context, sess session.Session, eventType, recordID, flat string, amount core.Money) {
	if s.publisher == nil {
		return
	}
	event := amqp.NewLedgerEvent(eventType, sess.StorageKey, recordID)
	event.FlatNumber = flat
	if amount.Cents != 0 {
		event.Amount = amount.String()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			"type", eventType, "record_id", recordID, "error", err)
	}
}
