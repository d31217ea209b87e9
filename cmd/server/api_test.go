package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levantline/freightdesk/internal/pricing"
	"github.com/levantline/freightdesk/internal/quotes"
)

func TestEstimate_ReturnsProvisionalBreakdown(t *testing.T) {
	handler := newTestServer(t).routes()

	body := map[string]any{
		"parcels": []map[string]any{
			{"weight_kg": 20, "length_cm": 40, "width_cm": 30, "height_cm": 30},
			{"weight_kg": 30, "length_cm": 50, "width_cm": 40, "height_cm": 30},
		},
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/estimate", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	breakdown := decodeBody[pricing.Breakdown](t, rec)

	// Seeded rates: 3 €/kg wins over 0.096 m³ × 300 €/m³.
	assert.Equal(t, pricing.Cents(15_000), breakdown.Base.ByWeight)
	assert.Equal(t, pricing.Cents(2_880), breakdown.Base.ByVolume)
	assert.Equal(t, pricing.Cents(15_000), breakdown.Total)
	assert.True(t, breakdown.Provisional)
	assert.Equal(t, "EUR", breakdown.Currency)
}

func TestEstimate_EmptyShipmentPricesAtMinimum(t *testing.T) {
	handler := newTestServer(t).routes()

	rec := doJSON(t, handler, http.MethodPost, "/api/estimate", map[string]any{})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	breakdown := decodeBody[pricing.Breakdown](t, rec)
	assert.Equal(t, pricing.Cents(6_000), breakdown.Total)
}

func TestEstimate_UnknownPackagingAndTierIgnored(t *testing.T) {
	handler := newTestServer(t).routes()

	body := map[string]any{
		"parcels":          []map[string]any{{"weight_kg": 10}},
		"packaging":        map[string]int{"hologram-box": 3},
		"destination_tier": "atlantis",
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/estimate", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	breakdown := decodeBody[pricing.Breakdown](t, rec)
	assert.Equal(t, pricing.Cents(0), breakdown.Packaging)
	assert.Equal(t, pricing.Cents(0), breakdown.Destination)
	assert.Equal(t, pricing.Cents(6_000), breakdown.Total)
}

func TestEstimate_RejectsMalformedJSON(t *testing.T) {
	handler := newTestServer(t).routes()

	rec := doJSON(t, handler, http.MethodPost, "/api/estimate", "not-an-object")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTariff_ExposesSeededRates(t *testing.T) {
	handler := newTestServer(t).routes()

	rec := doJSON(t, handler, http.MethodGet, "/api/tariff", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[map[string]any](t, rec)

	rates, ok := resp["rates"].(map[string]any)
	require.True(t, ok, "missing rates: %v", resp)
	assert.Equal(t, float64(300), rates["weight_rate_cents"])
	assert.Equal(t, float64(30_000), rates["volume_rate_cents"])
	assert.NotEmpty(t, resp["packaging"])
	assert.NotEmpty(t, resp["destination_tiers"])
}

func TestQuoteCreate_PersistsServerComputedPrice(t *testing.T) {
	handler := newTestServer(t).routes()

	body := map[string]any{
		"customer_name":    "Rama Haddad",
		"customer_email":   "rama@example.com",
		"destination_tier": "aleppo",
		"parcels": []map[string]any{
			{"weight_kg": 50, "length_cm": 40, "width_cm": 40, "height_cm": 40},
		},
		"insurance": map[string]any{"enabled": true, "declared_value_cents": 200_000},
	}
	rec := doJSON(t, handler, http.MethodPost, "/api/quotes", body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[quotes.Quote](t, rec)

	assert.NotEmpty(t, created.Reference)
	assert.Equal(t, quotes.StatusPending, created.Status)
	assert.Equal(t, quotes.ModeLCL, created.Mode)
	// 150 € base + 25 € Aleppo fee + 30 € insurance (1.5% of 2000 €).
	assert.Equal(t, pricing.Cents(20_500), created.Total)

	// The quote is retrievable by reference.
	got := doJSON(t, handler, http.MethodGet, "/api/quotes/"+created.Reference, nil)
	require.Equal(t, http.StatusOK, got.Code)
	fetched := decodeBody[quotes.Quote](t, got)
	assert.Equal(t, created.Total, fetched.Total)
}

func TestQuoteCreate_ValidatesSubmission(t *testing.T) {
	handler := newTestServer(t).routes()

	// Missing customer fields.
	rec := doJSON(t, handler, http.MethodPost, "/api/quotes", map[string]any{
		"parcels": []map[string]any{{"weight_kg": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No parcels.
	rec = doJSON(t, handler, http.MethodPost, "/api/quotes", map[string]any{
		"customer_name":  "A",
		"customer_email": "a@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Insurance enabled without a declared value.
	rec = doJSON(t, handler, http.MethodPost, "/api/quotes", map[string]any{
		"customer_name":  "A",
		"customer_email": "a@example.com",
		"parcels":        []map[string]any{{"weight_kg": 1}},
		"insurance":      map[string]any{"enabled": true},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteGet_UnknownReference(t *testing.T) {
	handler := newTestServer(t).routes()

	rec := doJSON(t, handler, http.MethodGet, "/api/quotes/does-not-exist", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
