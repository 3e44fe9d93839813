// Package toolhost implements the database tool host: a sqlite-backed store
// of customers and tickets exposed to the agents as MCP tools over stdio.
package toolhost

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup for a customer that does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is one row of the customers table.
type Customer struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Status      string  `json:"status"`
	Tier        string  `json:"tier"`
	BillingInfo *string `json:"billing_info"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// Ticket is one row of the tickets table.
type Ticket struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Issue      string `json:"issue"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	CreatedAt  string `json:"created_at"`
}

// History pairs a customer with every ticket they ever filed.
type History struct {
	Customer *Customer `json:"customer"`
	Tickets  []Ticket  `json:"tickets"`
}

// The closed vocabularies enforced by the schema. All values are stored
// lowercase.
var (
	customerStatuses = []string{"active", "disabled"}
	customerTiers    = []string{"standard", "premium", "enterprise"}
	ticketStatuses   = []string{"open", "in_progress", "resolved"}
	ticketPriorities = []string{"low", "medium", "high"}
)

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Store wraps the sqlite database behind typed operations.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'disabled')),
			tier TEXT NOT NULL DEFAULT 'standard' CHECK(tier IN ('standard','premium','enterprise')),
			billing_info TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_id INTEGER NOT NULL,
			issue TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open','in_progress','resolved')),
			priority TEXT NOT NULL DEFAULT 'medium' CHECK(priority IN ('low','medium','high')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(customer_id) REFERENCES customers(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_email ON customers(email)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_customer_id ON tickets(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// GetCustomer fetches one customer by id. Returns ErrNotFound when the id is
// unknown.
func (s *Store) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, email, phone, status, tier, billing_info, created_at, updated_at FROM customers WHERE id = ?`, id)
	return scanCustomer(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status, &c.Tier, &c.BillingInfo, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCustomers returns customers filtered by status and tier. Empty filters
// match everything; a non-empty filter outside the vocabulary is an error.
// limit <= 0 means no limit.
func (s *Store) ListCustomers(ctx context.Context, status, tier string, limit int) ([]Customer, error) {
	query := `SELECT id, name, email, phone, status, tier, billing_info, created_at, updated_at FROM customers`
	var conditions []string
	var params []any

	if status != "" {
		if !oneOf(status, customerStatuses) {
			return nil, fmt.Errorf("status must be one of %s", strings.Join(customerStatuses, ", "))
		}
		conditions = append(conditions, "status = ?")
		params = append(params, status)
	}
	if tier != "" {
		if !oneOf(tier, customerTiers) {
			return nil, fmt.Errorf("tier must be one of %s", strings.Join(customerTiers, ", "))
		}
		conditions = append(conditions, "tier = ?")
		params = append(params, tier)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if limit > 0 {
		query += " LIMIT ?"
		params = append(params, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// UpdateCustomer applies the given field updates to one customer and returns
// the updated row. Unknown fields and out-of-vocabulary status/tier values
// are rejected before anything is written.
func (s *Store) UpdateCustomer(ctx context.Context, id int64, data map[string]any) (*Customer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	allowed := map[string]bool{
		"name": true, "email": true, "phone": true,
		"status": true, "tier": true, "billing_info": true,
	}
	fields := make([]string, 0, len(data))
	for k := range data {
		if !allowed[k] {
			return nil, fmt.Errorf("invalid update field: %s", k)
		}
		fields = append(fields, k)
	}
	sort.Strings(fields)

	if v, ok := data["status"].(string); ok && !oneOf(v, customerStatuses) {
		return nil, fmt.Errorf("status must be one of %s", strings.Join(customerStatuses, ", "))
	}
	if v, ok := data["tier"].(string); ok && !oneOf(v, customerTiers) {
		return nil, fmt.Errorf("tier must be one of %s", strings.Join(customerTiers, ", "))
	}

	if _, err := s.GetCustomer(ctx, id); err != nil {
		return nil, err
	}

	setExprs := make([]string, 0, len(fields)+1)
	params := make([]any, 0, len(fields)+2)
	for _, f := range fields {
		setExprs = append(setExprs, f+" = ?")
		params = append(params, data[f])
	}
	setExprs = append(setExprs, "updated_at = ?")
	params = append(params, time.Now().UTC().Format(time.DateTime), id)

	query := "UPDATE customers SET " + strings.Join(setExprs, ", ") + " WHERE id = ?"
	if _, err := s.db.ExecContext(ctx, query, params...); err != nil {
		return nil, err
	}
	return s.GetCustomer(ctx, id)
}

// CreateTicket opens a new ticket for an existing customer and returns it.
func (s *Store) CreateTicket(ctx context.Context, customerID int64, issue, priority string) (*Ticket, error) {
	if !oneOf(priority, ticketPriorities) {
		return nil, fmt.Errorf("priority must be one of %s", strings.Join(ticketPriorities, ", "))
	}
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (customer_id, issue, status, priority, created_at) VALUES (?, ?, 'open', ?, ?)`,
		customerID, issue, priority, time.Now().UTC().Format(time.DateTime))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.getTicket(ctx, id)
}

func (s *Store) getTicket(ctx context.Context, id int64) (*Ticket, error) {
	var t Ticket
	err := s.db.QueryRowContext(ctx,
		`SELECT id, customer_id, issue, status, priority, created_at FROM tickets WHERE id = ?`, id).
		Scan(&t.ID, &t.CustomerID, &t.Issue, &t.Status, &t.Priority, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetCustomerHistory returns a customer together with all their tickets.
func (s *Store) GetCustomerHistory(ctx context.Context, id int64) (*History, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	tickets, err := s.ListTickets(ctx, []int64{id}, "", "")
	if err != nil {
		return nil, err
	}
	return &History{Customer: customer, Tickets: tickets}, nil
}

// ListTickets returns the tickets of the given customers, optionally
// filtered by status and priority. An empty id list matches nothing.
func (s *Store) ListTickets(ctx context.Context, customerIDs []int64, status, priority string) ([]Ticket, error) {
	if len(customerIDs) == 0 {
		return []Ticket{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(customerIDs)), ",")
	query := `SELECT id, customer_id, issue, status, priority, created_at FROM tickets WHERE customer_id IN (` + placeholders + `)`
	params := make([]any, 0, len(customerIDs)+2)
	for _, id := range customerIDs {
		params = append(params, id)
	}

	if status != "" {
		if !oneOf(status, ticketStatuses) {
			return nil, fmt.Errorf("status must be one of %s", strings.Join(ticketStatuses, ", "))
		}
		query += " AND status = ?"
		params = append(params, status)
	}
	if priority != "" {
		if !oneOf(priority, ticketPriorities) {
			return nil, fmt.Errorf("priority must be one of %s", strings.Join(ticketPriorities, ", "))
		}
		query += " AND priority = ?"
		params = append(params, priority)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []Ticket{}
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Issue, &t.Status, &t.Priority, &t.CreatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// Seed inserts sample customers and tickets when the database is empty, so
// a fresh install answers queries immediately.
func (s *Store) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	billing := func(v string) *string { return &v }
	customers := []Customer{
		{Name: "Alice Johnson", Email: "alice.johnson@example.com", Phone: "5550100", Status: "active", Tier: "premium", BillingInfo: billing("Visa ****1234")},
		{Name: "Ben Carter", Email: "ben.carter@example.com", Phone: "5550101", Status: "active", Tier: "standard", BillingInfo: billing("Mastercard ****5678")},
		{Name: "Chloe Nguyen", Email: "chloe.nguyen@example.org", Phone: "5550102", Status: "disabled", Tier: "enterprise"},
		{Name: "Daniel Reyes", Email: "daniel.reyes@example.com", Phone: "5550103", Status: "active", Tier: "premium", BillingInfo: billing("Visa ****9876")},
		{Name: "Elena Petrova", Email: "elena.petrova@example.net", Phone: "5550104", Status: "active", Tier: "standard", BillingInfo: billing("Amex ****4321")},
		{Name: "Farid Hassan", Email: "farid.hassan@example.io", Phone: "5550105", Status: "active", Tier: "standard"},
		{Name: "Grace Kim", Email: "grace.kim@example.com", Phone: "5550106", Status: "active", Tier: "enterprise", BillingInfo: billing("Mastercard ****2468")},
		{Name: "Hugo Almeida", Email: "hugo.almeida@example.org", Phone: "5550107", Status: "disabled", Tier: "premium"},
	}
	for _, c := range customers {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO customers (name, email, phone, status, tier, billing_info) VALUES (?, ?, ?, ?, ?, ?)`,
			c.Name, c.Email, c.Phone, c.Status, c.Tier, c.BillingInfo); err != nil {
			return err
		}
	}

	tickets := []Ticket{
		{CustomerID: 1, Issue: "Cannot log in to dashboard", Status: "open", Priority: "high"},
		{CustomerID: 1, Issue: "Password reset email never arrives", Status: "in_progress", Priority: "medium"},
		{CustomerID: 2, Issue: "Billing question about last invoice", Status: "resolved", Priority: "low"},
		{CustomerID: 3, Issue: "Email notifications failing", Status: "open", Priority: "medium"},
		{CustomerID: 4, Issue: "Payment processing failed", Status: "in_progress", Priority: "high"},
		{CustomerID: 5, Issue: "Data export hangs on large ranges", Status: "resolved", Priority: "high"},
		{CustomerID: 5, Issue: "Dashboard slow to load", Status: "in_progress", Priority: "medium"},
		{CustomerID: 7, Issue: "Search returns stale results", Status: "open", Priority: "medium"},
		{CustomerID: 8, Issue: "Feature request: dark mode", Status: "open", Priority: "low"},
	}
	for _, t := range tickets {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO tickets (customer_id, issue, status, priority) VALUES (?, ?, ?, ?)`,
			t.CustomerID, t.Issue, t.Status, t.Priority); err != nil {
			return err
		}
	}
	return nil
}
