// Package seed installs the baseline data a fresh deployment needs: the
// admin user, default tariff rates, packaging options and destination tiers.
// Runs are idempotent; existing rows are never touched, so admin edits
// survive restarts.
package seed

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/levantline/freightdesk/internal/pricing"
	"github.com/levantline/freightdesk/internal/tariff"
)

// Default tariff rates, matching the published price list:
// 3 €/kg, 300 €/m³, 60 € minimum, 1.5% insurance with a 5 € floor.
const (
	defaultWeightRateCents       = 300
	defaultVolumeRateCents       = 30_000
	defaultMinimumCents          = 6_000
	defaultInsuranceRateBps      = 150
	defaultInsuranceMinimumCents = 500
	defaultCurrency              = "EUR"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

type packagingSeed struct {
	code      string
	name      string
	unitPrice pricing.Cents
}

type tierSeed struct {
	code      string
	kind      string
	name      string
	baseFee   pricing.Cents
	perKgRate pricing.Cents
}

var defaultPackaging = []packagingSeed{
	{"carton-small", "Small carton (up to 40 cm)", 350},
	{"carton-large", "Large carton (up to 80 cm)", 600},
	{"bubble-wrap", "Bubble wrap, per parcel", 150},
	{"wooden-crate", "Custom wooden crate", 2_500},
	{"pallet-wrap", "Pallet with stretch wrap", 900},
}

var defaultTiers = []tierSeed{
	// Syrian delivery provinces. Damascus is the home depot: no surcharge.
	{"damascus", tariff.KindProvince, "Damascus", 0, 0},
	{"rif-dimashq", tariff.KindProvince, "Rif Dimashq", 1_000, 10},
	{"homs", tariff.KindProvince, "Homs", 1_500, 15},
	{"hama", tariff.KindProvince, "Hama", 1_800, 15},
	{"latakia", tariff.KindProvince, "Latakia", 2_000, 15},
	{"tartus", tariff.KindProvince, "Tartus", 2_000, 15},
	{"aleppo", tariff.KindProvince, "Aleppo", 2_500, 20},
	{"deir-ez-zor", tariff.KindProvince, "Deir ez-Zor", 4_000, 35},
	// European pickup zones. Depot drop-off carries no surcharge.
	{"eu-dropoff", tariff.KindZone, "Depot drop-off", 0, 0},
	{"eu-zone-1", tariff.KindZone, "Zone 1 (Germany, Benelux)", 1_500, 10},
	{"eu-zone-2", tariff.KindZone, "Zone 2 (France, Austria, Italy)", 2_500, 20},
	{"eu-zone-3", tariff.KindZone, "Zone 3 (rest of Europe)", 4_000, 30},
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureRates(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensurePackaging(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureTiers(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	sum := sha256.Sum256([]byte(password))
	if _, err := tx.Exec(`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, hex.EncodeToString(sum[:])); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureRates(tx *sql.Tx, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM tariff_rates WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check tariff rates existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO tariff_rates (
			id,
			weight_rate_cents,
			volume_rate_cents,
			minimum_cents,
			insurance_rate_bps,
			insurance_minimum_cents,
			currency
		)
		VALUES (1, ?, ?, ?, ?, ?, ?)
	`,
		defaultWeightRateCents,
		defaultVolumeRateCents,
		defaultMinimumCents,
		defaultInsuranceRateBps,
		defaultInsuranceMinimumCents,
		defaultCurrency,
	); err != nil {
		return fmt.Errorf("insert tariff rates singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensurePackaging(tx *sql.Tx, stats *Stats) error {
	for _, opt := range defaultPackaging {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM packaging_options WHERE code = ? LIMIT 1)`, opt.code).Scan(&exists); err != nil {
			return fmt.Errorf("check packaging option %s: %w", opt.code, err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO packaging_options (code, name, unit_price_cents, notes, active)
			VALUES (?, ?, ?, '', TRUE)
		`, opt.code, opt.name, opt.unitPrice); err != nil {
			return fmt.Errorf("insert packaging option %s: %w", opt.code, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureTiers(tx *sql.Tx, stats *Stats) error {
	for _, tier := range defaultTiers {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM destination_tiers WHERE code = ? LIMIT 1)`, tier.code).Scan(&exists); err != nil {
			return fmt.Errorf("check destination tier %s: %w", tier.code, err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO destination_tiers (code, kind, name, base_fee_cents, per_kg_rate_cents, notes, active)
			VALUES (?, ?, ?, ?, ?, '', TRUE)
		`, tier.code, tier.kind, tier.name, tier.baseFee, tier.perKgRate); err != nil {
			return fmt.Errorf("insert destination tier %s: %w", tier.code, err)
		}
		stats.Inserts++
	}
	return nil
}
