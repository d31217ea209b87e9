package main

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levantline/freightdesk/internal/pricing"
	"github.com/levantline/freightdesk/internal/quotes"
	"github.com/levantline/freightdesk/internal/tariff"
)

func TestAdmin_RequiresSession(t *testing.T) {
	handler := newTestServer(t).routes()

	rec := doJSON(t, handler, http.MethodGet, "/admin/rates", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged := &http.Cookie{Name: sessionCookieName, Value: "Zm9yZ2Vk.deadbeef"}
	rec = doJSON(t, handler, http.MethodGet, "/admin/rates", nil, forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_RejectsBadPassword(t *testing.T) {
	handler := newTestServer(t).routes()

	rec := doJSON(t, handler, http.MethodPost, "/login", map[string]string{
		"email":    testAdminEmail,
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRates_UpdateFlowsIntoEstimates(t *testing.T) {
	handler := newTestServer(t).routes()
	cookie := adminCookie(t, handler)

	rec := doJSON(t, handler, http.MethodPut, "/admin/rates", map[string]any{
		"weight_rate_cents":       400,
		"volume_rate_cents":       30_000,
		"minimum_cents":           6_000,
		"insurance_rate_bps":      150,
		"insurance_minimum_cents": 500,
		"currency":                "EUR",
	}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The estimator picks up the new weight rate immediately.
	est := doJSON(t, handler, http.MethodPost, "/api/estimate", map[string]any{
		"parcels": []map[string]any{{"weight_kg": 100}},
	})
	require.Equal(t, http.StatusOK, est.Code)
	breakdown := decodeBody[pricing.Breakdown](t, est)
	assert.Equal(t, pricing.Cents(40_000), breakdown.Total)
}

func TestAdminRates_RejectsInvalidCurrency(t *testing.T) {
	handler := newTestServer(t).routes()
	cookie := adminCookie(t, handler)

	rec := doJSON(t, handler, http.MethodPut, "/admin/rates", map[string]any{
		"weight_rate_cents": 300,
		"currency":          "euros",
	}, cookie)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminPackaging_CreateAndDeactivate(t *testing.T) {
	handler := newTestServer(t).routes()
	cookie := adminCookie(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/admin/packaging", map[string]any{
		"code":             "foam-insert",
		"name":             "Foam insert",
		"unit_price_cents": 450,
		"active":           true,
	}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[tariff.PackagingOption](t, rec)
	require.NotZero(t, created.ID)

	// New option is billable right away.
	est := doJSON(t, handler, http.MethodPost, "/api/estimate", map[string]any{
		"packaging": map[string]int{"foam-insert": 2},
	})
	require.Equal(t, http.StatusOK, est.Code)
	breakdown := decodeBody[pricing.Breakdown](t, est)
	assert.Equal(t, pricing.Cents(900), breakdown.Packaging)

	// Deactivating removes it from the priced tariff; stale selections
	// silently price at zero.
	upd := doJSON(t, handler, http.MethodPost, "/admin/packaging/"+strconv.FormatInt(created.ID, 10), map[string]any{
		"code":             created.Code,
		"name":             created.Name,
		"unit_price_cents": int64(created.UnitPrice),
		"active":           false,
	}, cookie)
	require.Equal(t, http.StatusOK, upd.Code, upd.Body.String())

	est = doJSON(t, handler, http.MethodPost, "/api/estimate", map[string]any{
		"packaging": map[string]int{"foam-insert": 2},
	})
	require.Equal(t, http.StatusOK, est.Code)
	breakdown = decodeBody[pricing.Breakdown](t, est)
	assert.Equal(t, pricing.Cents(0), breakdown.Packaging)
}

func TestAdminTiers_UnknownIDIs404(t *testing.T) {
	handler := newTestServer(t).routes()
	cookie := adminCookie(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/admin/tiers/99999", map[string]any{
		"code": "nowhere",
		"kind": "province",
		"name": "Nowhere",
	}, cookie)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminQuotes_SearchAndStatus(t *testing.T) {
	handler := newTestServer(t).routes()
	cookie := adminCookie(t, handler)

	created := doJSON(t, handler, http.MethodPost, "/api/quotes", map[string]any{
		"customer_name":  "Basel K",
		"customer_email": "basel@example.com",
		"parcels":        []map[string]any{{"weight_kg": 10}},
	})
	require.Equal(t, http.StatusCreated, created.Code)
	quote := decodeBody[quotes.Quote](t, created)

	list := doJSON(t, handler, http.MethodGet, "/admin/quotes?q=Basel", nil, cookie)
	require.Equal(t, http.StatusOK, list.Code)
	summaries := decodeBody[[]quotes.Summary](t, list)
	require.Len(t, summaries, 1)
	assert.Equal(t, quote.Reference, summaries[0].Reference)

	ok := doJSON(t, handler, http.MethodPost, "/admin/quotes/"+quote.Reference+"/status", map[string]string{"status": "confirmed"}, cookie)
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())
	updated := decodeBody[quotes.Quote](t, ok)
	assert.Equal(t, quotes.StatusConfirmed, updated.Status)

	// Re-confirming an already confirmed quote is not a legal transition.
	conflict := doJSON(t, handler, http.MethodPost, "/admin/quotes/"+quote.Reference+"/status", map[string]string{"status": "confirmed"}, cookie)
	assert.Equal(t, http.StatusConflict, conflict.Code)
}
