// Package tariff persists the authoritative rate tables and assembles them
// into the pricing.Tariff value the estimator consumes.
package tariff

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/levantline/freightdesk/internal/pricing"
)

// Tier kinds. A province is a Syrian delivery destination; a zone is a
// European pickup region.
const (
	KindProvince = "province"
	KindZone     = "zone"
)

// Rates is the singleton base-rate configuration row.
type Rates struct {
	WeightRate       pricing.Cents `json:"weight_rate_cents"`
	VolumeRate       pricing.Cents `json:"volume_rate_cents"`
	MinimumCharge    pricing.Cents `json:"minimum_cents"`
	InsuranceRateBps int64         `json:"insurance_rate_bps"`
	InsuranceMinimum pricing.Cents `json:"insurance_minimum_cents"`
	Currency         string        `json:"currency"`
}

// PackagingOption is one orderable packaging service.
type PackagingOption struct {
	ID        int64         `json:"id"`
	Code      string        `json:"code"`
	Name      string        `json:"name"`
	UnitPrice pricing.Cents `json:"unit_price_cents"`
	Notes     string        `json:"notes"`
	Active    bool          `json:"active"`
}

// Tier is one destination surcharge row.
type Tier struct {
	ID        int64         `json:"id"`
	Code      string        `json:"code"`
	Kind      string        `json:"kind"`
	Name      string        `json:"name"`
	BaseFee   pricing.Cents `json:"base_fee_cents"`
	PerKgRate pricing.Cents `json:"per_kg_rate_cents"`
	Notes     string        `json:"notes"`
	Active    bool          `json:"active"`
}

// Store reads and writes tariff tables in SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load assembles the complete tariff from the rates singleton plus all active
// packaging options and destination tiers. Inactive rows are excluded, so a
// retired option selected by a stale client prices at zero.
func (s *Store) Load() (pricing.Tariff, error) {
	rates, err := s.Rates()
	if err != nil {
		return pricing.Tariff{}, err
	}

	options, err := s.ListPackaging()
	if err != nil {
		return pricing.Tariff{}, err
	}
	packaging := make(map[string]pricing.Cents, len(options))
	for _, opt := range options {
		if opt.Active {
			packaging[opt.Code] = opt.UnitPrice
		}
	}

	tiers, err := s.ListTiers()
	if err != nil {
		return pricing.Tariff{}, err
	}
	destinations := make(map[string]pricing.DestinationTier, len(tiers))
	for _, tier := range tiers {
		if tier.Active {
			destinations[tier.Code] = pricing.DestinationTier{
				BaseFee:   tier.BaseFee,
				PerKgRate: tier.PerKgRate,
			}
		}
	}

	return pricing.Tariff{
		Currency:         rates.Currency,
		WeightRate:       rates.WeightRate,
		VolumeRate:       rates.VolumeRate,
		MinimumCharge:    rates.MinimumCharge,
		Packaging:        packaging,
		DestinationTiers: destinations,
		InsuranceRateBps: rates.InsuranceRateBps,
		InsuranceMinimum: rates.InsuranceMinimum,
	}, nil
}

// Rates returns the singleton rate configuration.
func (s *Store) Rates() (Rates, error) {
	var r Rates
	err := s.db.QueryRow(`
		SELECT weight_rate_cents, volume_rate_cents, minimum_cents, insurance_rate_bps, insurance_minimum_cents, currency
		FROM tariff_rates
		WHERE id = 1
	`).Scan(
		&r.WeightRate,
		&r.VolumeRate,
		&r.MinimumCharge,
		&r.InsuranceRateBps,
		&r.InsuranceMinimum,
		&r.Currency,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Rates{}, fmt.Errorf("tariff_rates singleton not found")
		}
		return Rates{}, fmt.Errorf("query tariff_rates: %w", err)
	}
	return r, nil
}

// UpdateRates replaces the singleton rate configuration.
func (s *Store) UpdateRates(r Rates) error {
	_, err := s.db.Exec(`
		UPDATE tariff_rates
		SET
			weight_rate_cents = ?,
			volume_rate_cents = ?,
			minimum_cents = ?,
			insurance_rate_bps = ?,
			insurance_minimum_cents = ?,
			currency = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`,
		r.WeightRate,
		r.VolumeRate,
		r.MinimumCharge,
		r.InsuranceRateBps,
		r.InsuranceMinimum,
		r.Currency,
	)
	if err != nil {
		return fmt.Errorf("update tariff_rates: %w", err)
	}
	return nil
}

// ListPackaging returns all packaging options, active or not, newest first.
func (s *Store) ListPackaging() ([]PackagingOption, error) {
	rows, err := s.db.Query(`
		SELECT id, code, name, unit_price_cents, COALESCE(notes, ''), active
		FROM packaging_options
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query packaging options: %w", err)
	}
	defer rows.Close()

	options := make([]PackagingOption, 0)
	for rows.Next() {
		var opt PackagingOption
		if err := rows.Scan(&opt.ID, &opt.Code, &opt.Name, &opt.UnitPrice, &opt.Notes, &opt.Active); err != nil {
			return nil, fmt.Errorf("scan packaging option: %w", err)
		}
		options = append(options, opt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packaging options: %w", err)
	}

	return options, nil
}

// CreatePackaging inserts a new packaging option.
func (s *Store) CreatePackaging(opt PackagingOption) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO packaging_options (code, name, unit_price_cents, notes, active)
		VALUES (?, ?, ?, ?, ?)
	`, opt.Code, opt.Name, opt.UnitPrice, opt.Notes, opt.Active)
	if err != nil {
		return 0, fmt.Errorf("insert packaging option: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("packaging option insert id: %w", err)
	}
	return id, nil
}

// UpdatePackaging updates an existing option. ErrNotFound when the id does
// not exist.
func (s *Store) UpdatePackaging(id int64, opt PackagingOption) error {
	result, err := s.db.Exec(`
		UPDATE packaging_options
		SET
			code = ?,
			name = ?,
			unit_price_cents = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, opt.Code, opt.Name, opt.UnitPrice, opt.Notes, opt.Active, id)
	if err != nil {
		return fmt.Errorf("update packaging option: %w", err)
	}

	return requireAffected(result)
}

// ListTiers returns all destination tiers, provinces before zones.
func (s *Store) ListTiers() ([]Tier, error) {
	rows, err := s.db.Query(`
		SELECT id, code, kind, name, base_fee_cents, per_kg_rate_cents, COALESCE(notes, ''), active
		FROM destination_tiers
		ORDER BY kind, code
	`)
	if err != nil {
		return nil, fmt.Errorf("query destination tiers: %w", err)
	}
	defer rows.Close()

	tiers := make([]Tier, 0)
	for rows.Next() {
		var tier Tier
		if err := rows.Scan(&tier.ID, &tier.Code, &tier.Kind, &tier.Name, &tier.BaseFee, &tier.PerKgRate, &tier.Notes, &tier.Active); err != nil {
			return nil, fmt.Errorf("scan destination tier: %w", err)
		}
		tiers = append(tiers, tier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate destination tiers: %w", err)
	}

	return tiers, nil
}

// CreateTier inserts a new destination tier.
func (s *Store) CreateTier(tier Tier) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO destination_tiers (code, kind, name, base_fee_cents, per_kg_rate_cents, notes, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tier.Code, tier.Kind, tier.Name, tier.BaseFee, tier.PerKgRate, tier.Notes, tier.Active)
	if err != nil {
		return 0, fmt.Errorf("insert destination tier: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("destination tier insert id: %w", err)
	}
	return id, nil
}

// UpdateTier updates an existing tier. ErrNotFound when the id does not exist.
func (s *Store) UpdateTier(id int64, tier Tier) error {
	result, err := s.db.Exec(`
		UPDATE destination_tiers
		SET
			code = ?,
			kind = ?,
			name = ?,
			base_fee_cents = ?,
			per_kg_rate_cents = ?,
			notes = ?,
			active = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, tier.Code, tier.Kind, tier.Name, tier.BaseFee, tier.PerKgRate, tier.Notes, tier.Active, id)
	if err != nil {
		return fmt.Errorf("update destination tier: %w", err)
	}

	return requireAffected(result)
}

// ErrNotFound is returned by updates that matched no row.
var ErrNotFound = errors.New("tariff: not found")

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
