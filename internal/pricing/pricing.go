// Package pricing computes provisional freight quotes for LCL parcel
// shipments. It is pure and dependency-free: the same parcels, selections and
// tariff always produce the same Breakdown, and no input ever causes an
// error; invalid values contribute zero instead.
//
// The computed total is an estimate for the customer. The authoritative price
// is the one the quotes store computes and persists at submission time.
package pricing

import "math"

// Parcel is one physical package within a shipment. Dimensions are in
// centimeters, weight in kilograms.
type Parcel struct {
	WeightKg    float64 `json:"weight_kg"`
	LengthCm    float64 `json:"length_cm"`
	WidthCm     float64 `json:"width_cm"`
	HeightCm    float64 `json:"height_cm"`
	Fragile     bool    `json:"fragile"`
	Description string  `json:"description"`
}

// VolumeM3 returns the parcel's volume in cubic meters.
func (p Parcel) VolumeM3() float64 {
	return VolumeM3(p.LengthCm, p.WidthCm, p.HeightCm)
}

// VolumeM3 converts linear dimensions in centimeters to cubic meters.
// Negative or non-finite dimensions are treated as 0.
func VolumeM3(lengthCm, widthCm, heightCm float64) float64 {
	return sanitize(lengthCm) * sanitize(widthCm) * sanitize(heightCm) / 1_000_000
}

// DestinationTier is one delivery surcharge tier: a Syrian destination
// province or a European pickup zone. A tier with zero fees means no
// surcharge (the home province, drop-off at the depot).
type DestinationTier struct {
	BaseFee   Cents `json:"base_fee_cents"`
	PerKgRate Cents `json:"per_kg_rate_cents"`
}

// Tariff is the full rate table a quote is priced against. It is loaded from
// storage, never inlined, so the estimator stays in sync with whatever the
// admin has configured.
type Tariff struct {
	Currency         string                     `json:"currency"`
	WeightRate       Cents                      `json:"weight_rate_cents"`  // per kg
	VolumeRate       Cents                      `json:"volume_rate_cents"`  // per m³
	MinimumCharge    Cents                      `json:"minimum_cents"`      // floor on the base freight charge
	Packaging        map[string]Cents           `json:"packaging"`          // option code → unit price
	DestinationTiers map[string]DestinationTier `json:"destination_tiers"`  // tier code → surcharge
	InsuranceRateBps int64                      `json:"insurance_rate_bps"` // premium, basis points of declared value
	InsuranceMinimum Cents                      `json:"insurance_minimum_cents"`
}

// Selections are the optional services chosen for a shipment.
type Selections struct {
	// Packaging maps a packaging option code to the requested quantity.
	// Non-positive quantities and unknown codes contribute nothing.
	Packaging map[string]int `json:"packaging"`
	// DestinationTier is the selected province or zone code, empty for none.
	DestinationTier string `json:"destination_tier"`
}

// Insurance is the cargo insurance selection. DeclaredValue is the customer's
// declared goods value; the premium is priced off it, not off the freight
// charge, because the underwriting risk scales with the cargo.
type Insurance struct {
	Enabled       bool  `json:"enabled"`
	DeclaredValue Cents `json:"declared_value_cents"`
}

// Base is the tiered base freight charge: the greatest of the weight tier,
// the volume tier and the fixed minimum.
type Base struct {
	ByWeight Cents `json:"base_by_weight_cents"`
	ByVolume Cents `json:"base_by_volume_cents"`
	Floor    Cents `json:"minimum_floor_cents"`
	Charge   Cents `json:"base_price_cents"`
}

// Breakdown is the itemised result of a quote estimate.
//
// Provisional is always true on anything this package produces: the client
// shows these numbers, but the persisted price is recomputed server-side.
type Breakdown struct {
	TotalWeightKg float64 `json:"total_weight_kg"`
	TotalVolumeM3 float64 `json:"total_volume_m3"`
	Base          Base    `json:"base"`
	Packaging     Cents   `json:"packaging_cents"`
	Destination   Cents   `json:"destination_surcharge_cents"`
	Subtotal      Cents   `json:"subtotal_cents"`
	Insurance     Cents   `json:"insurance_cents"`
	Total         Cents   `json:"total_cents"`
	Currency      string  `json:"currency"`
	Provisional   bool    `json:"provisional"`
}

// BaseCharge computes the base freight charge for the aggregate shipment.
// Dimensional-weight pricing: the carrier charges whichever of weight or
// volume is more expensive, floored at the minimum handling charge, so an
// empty shipment prices exactly at the floor.
func BaseCharge(totalWeightKg, totalVolumeM3 float64, t Tariff) Base {
	b := Base{
		ByWeight: mulRate(totalWeightKg, t.WeightRate),
		ByVolume: mulRate(totalVolumeM3, t.VolumeRate),
		Floor:    t.MinimumCharge,
	}
	b.Charge = maxCents(b.ByWeight, b.ByVolume, b.Floor)
	return b
}

// PackagingCost sums unit price × quantity over the selected packaging
// options. Codes missing from the tariff contribute 0 rather than failing:
// the option may simply no longer be offered.
func PackagingCost(selected map[string]int, t Tariff) Cents {
	var total Cents
	for code, quantity := range selected {
		if quantity <= 0 {
			continue
		}
		unitPrice, ok := t.Packaging[code]
		if !ok {
			continue
		}
		total += unitPrice * Cents(quantity)
	}
	return total
}

// DestinationCost prices delivery to the selected tier: the tier's flat base
// fee or its weight-scaled rate, whichever is larger. No tier, or a tier not
// in the tariff, costs 0.
func DestinationCost(tierCode string, totalWeightKg float64, t Tariff) Cents {
	tier, ok := t.DestinationTiers[tierCode]
	if !ok {
		return 0
	}
	return maxCents(tier.BaseFee, mulRate(totalWeightKg, tier.PerKgRate))
}

// InsuranceCost prices cargo insurance as a percentage of the declared goods
// value with a fixed minimum premium. Disabled, or a missing declared value,
// costs 0.
func InsuranceCost(ins Insurance, t Tariff) Cents {
	if !ins.Enabled || ins.DeclaredValue <= 0 {
		return 0
	}
	premium := Cents(math.Round(float64(ins.DeclaredValue) * float64(t.InsuranceRateBps) / 10_000))
	return maxCents(premium, t.InsuranceMinimum)
}

// Estimate aggregates a full provisional quote: base charge from total weight
// and volume, additive service costs, and insurance last (it is a function of
// declared goods value, independent of the freight subtotal).
func Estimate(parcels []Parcel, sel Selections, ins Insurance, t Tariff) Breakdown {
	var totalWeightKg, totalVolumeM3 float64
	for _, p := range parcels {
		totalWeightKg += sanitize(p.WeightKg)
		totalVolumeM3 += p.VolumeM3()
	}

	base := BaseCharge(totalWeightKg, totalVolumeM3, t)
	packaging := PackagingCost(sel.Packaging, t)
	destination := DestinationCost(sel.DestinationTier, totalWeightKg, t)
	subtotal := base.Charge + packaging + destination
	insurance := InsuranceCost(ins, t)

	return Breakdown{
		TotalWeightKg: totalWeightKg,
		TotalVolumeM3: totalVolumeM3,
		Base:          base,
		Packaging:     packaging,
		Destination:   destination,
		Subtotal:      subtotal,
		Insurance:     insurance,
		Total:         subtotal + insurance,
		Currency:      t.Currency,
		Provisional:   true,
	}
}
