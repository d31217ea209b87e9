// Package quotes persists quote submissions. The client sends raw line items
// only; the store recomputes the breakdown against the current tariff at
// insert time, and that persisted price is the authoritative one.
package quotes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/levantline/freightdesk/internal/pricing"
)

// Shipment modes.
const (
	ModeLCL = "lcl"
	ModeFCL = "fcl"
)

// Quote statuses. A quote starts pending; an agent confirms it, the customer
// books it, and either side may cancel before booking completes.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
)

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusBooked, StatusCancelled},
	StatusBooked:    {StatusCancelled},
}

var (
	// ErrNotFound is returned when no quote matches the reference.
	ErrNotFound = errors.New("quotes: not found")
	// ErrBadTransition is returned for a status change the workflow forbids.
	ErrBadTransition = errors.New("quotes: invalid status transition")
)

// Submission is the raw quote request as submitted by the customer.
type Submission struct {
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	CustomerPhone string             `json:"customer_phone"`
	Mode          string             `json:"mode"`
	Parcels       []pricing.Parcel   `json:"parcels"`
	Selections    pricing.Selections `json:"selections"`
	Insurance     pricing.Insurance  `json:"insurance"`
	Notes         string             `json:"notes"`
}

// Quote is a persisted submission plus the server-computed price.
type Quote struct {
	Reference string `json:"reference"`
	CreatedAt string `json:"created_at"`
	Status    string `json:"status"`
	Submission
	Breakdown pricing.Breakdown `json:"breakdown"`
	Total     pricing.Cents     `json:"total_cents"`
}

// Summary is the list-view projection of a quote.
type Summary struct {
	Reference    string        `json:"reference"`
	CreatedAt    string        `json:"created_at"`
	Status       string        `json:"status"`
	CustomerName string        `json:"customer_name"`
	Mode         string        `json:"mode"`
	Total        pricing.Cents `json:"total_cents"`
}

// Store persists quotes in SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create prices the submission against the given tariff and persists it with
// a fresh reference in pending status. The submitted data carries no total;
// whatever the client displayed is discarded here.
func (s *Store) Create(sub Submission, t pricing.Tariff) (Quote, error) {
	if sub.Mode == "" {
		sub.Mode = ModeLCL
	}

	breakdown := pricing.Estimate(sub.Parcels, sub.Selections, sub.Insurance, t)

	parcelsJSON, err := json.Marshal(sub.Parcels)
	if err != nil {
		return Quote{}, fmt.Errorf("marshal parcels: %w", err)
	}
	selectionsJSON, err := json.Marshal(sub.Selections)
	if err != nil {
		return Quote{}, fmt.Errorf("marshal selections: %w", err)
	}
	insuranceJSON, err := json.Marshal(sub.Insurance)
	if err != nil {
		return Quote{}, fmt.Errorf("marshal insurance: %w", err)
	}
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return Quote{}, fmt.Errorf("marshal breakdown: %w", err)
	}

	reference := uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO quotes (
			reference,
			status,
			customer_name,
			customer_email,
			customer_phone,
			mode,
			notes,
			parcels_json,
			selections_json,
			insurance_json,
			breakdown_json,
			total_cents
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		reference,
		StatusPending,
		sub.CustomerName,
		sub.CustomerEmail,
		sub.CustomerPhone,
		sub.Mode,
		sub.Notes,
		string(parcelsJSON),
		string(selectionsJSON),
		string(insuranceJSON),
		string(breakdownJSON),
		breakdown.Total,
	)
	if err != nil {
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}

	return s.Get(reference)
}

// Get fetches one quote by reference.
func (s *Store) Get(reference string) (Quote, error) {
	row := s.db.QueryRow(`
		SELECT
			reference,
			created_at,
			status,
			customer_name,
			customer_email,
			customer_phone,
			mode,
			COALESCE(notes, ''),
			parcels_json,
			selections_json,
			insurance_json,
			breakdown_json,
			total_cents
		FROM quotes
		WHERE reference = ?
	`, reference)

	var q Quote
	var parcelsJSON, selectionsJSON, insuranceJSON, breakdownJSON string
	err := row.Scan(
		&q.Reference,
		&q.CreatedAt,
		&q.Status,
		&q.CustomerName,
		&q.CustomerEmail,
		&q.CustomerPhone,
		&q.Mode,
		&q.Notes,
		&parcelsJSON,
		&selectionsJSON,
		&insuranceJSON,
		&breakdownJSON,
		&q.Total,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, ErrNotFound
	}
	if err != nil {
		return Quote{}, fmt.Errorf("query quote: %w", err)
	}

	if err := json.Unmarshal([]byte(parcelsJSON), &q.Parcels); err != nil {
		return Quote{}, fmt.Errorf("unmarshal parcels: %w", err)
	}
	if err := json.Unmarshal([]byte(selectionsJSON), &q.Selections); err != nil {
		return Quote{}, fmt.Errorf("unmarshal selections: %w", err)
	}
	if err := json.Unmarshal([]byte(insuranceJSON), &q.Insurance); err != nil {
		return Quote{}, fmt.Errorf("unmarshal insurance: %w", err)
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &q.Breakdown); err != nil {
		return Quote{}, fmt.Errorf("unmarshal breakdown: %w", err)
	}

	return q, nil
}

// List returns quote summaries, newest first, optionally filtered by a
// substring match over reference, customer name and notes.
func (s *Store) List(query string) ([]Summary, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT reference, created_at, status, customer_name, mode, total_cents
		FROM quotes
		WHERE (? = ''
			OR reference LIKE ?
			OR customer_name LIKE ?
			OR COALESCE(notes, '') LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var item Summary
		if err := rows.Scan(&item.Reference, &item.CreatedAt, &item.Status, &item.CustomerName, &item.Mode, &item.Total); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		summaries = append(summaries, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return summaries, nil
}

// UpdateStatus applies one workflow transition. The current status is read
// and checked inside a transaction so concurrent agents cannot race a quote
// into an illegal state.
func (s *Store) UpdateStatus(reference, next string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin status transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`SELECT status FROM quotes WHERE reference = ?`, reference).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query quote status: %w", err)
	}

	if !CanTransition(current, next) {
		return fmt.Errorf("%w: %s → %s", ErrBadTransition, current, next)
	}

	if _, err := tx.Exec(`
		UPDATE quotes
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE reference = ?
	`, next, reference); err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status transaction: %w", err)
	}
	return nil
}

// CanTransition reports whether the workflow allows moving from one status to
// the next.
func CanTransition(current, next string) bool {
	for _, allowed := range transitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}
