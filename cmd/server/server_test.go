package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/levantline/freightdesk/internal/quotes"
	"github.com/levantline/freightdesk/internal/seed"
	"github.com/levantline/freightdesk/internal/tariff"
)

const (
	testAdminEmail    = "ops@levantline.example"
	testAdminPassword = "correct horse"
)

// newTestServer builds a fully wired server over an in-memory database with
// the production schema and seed data.
func newTestServer(t *testing.T) *server {
	t.Helper()

	database, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, err = database.Exec(testSchema)
	require.NoError(t, err)

	_, err = seed.Run(database, seed.Config{
		AdminEmail:    testAdminEmail,
		AdminPassword: testAdminPassword,
	})
	require.NoError(t, err)

	return &server{
		auth:     newAuthService(database, "test-secret"),
		tariffs:  tariff.NewStore(database),
		quotes:   quotes.NewStore(database),
		validate: validator.New(),
		log:      zap.NewNop(),
	}
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// adminCookie logs in through the real login handler and returns the session
// cookie it set.
func adminCookie(t *testing.T, handler http.Handler) *http.Cookie {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/login", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("login response did not set a session cookie")
	return nil
}

const testSchema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE tariff_rates (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	weight_rate_cents INTEGER NOT NULL DEFAULT 0,
	volume_rate_cents INTEGER NOT NULL DEFAULT 0,
	minimum_cents INTEGER NOT NULL DEFAULT 0,
	insurance_rate_bps INTEGER NOT NULL DEFAULT 0,
	insurance_minimum_cents INTEGER NOT NULL DEFAULT 0,
	currency TEXT NOT NULL DEFAULT 'EUR',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE packaging_options (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	unit_price_cents INTEGER NOT NULL DEFAULT 0,
	notes TEXT,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE destination_tiers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL UNIQUE,
	kind TEXT NOT NULL CHECK (kind IN ('province', 'zone')),
	name TEXT NOT NULL,
	base_fee_cents INTEGER NOT NULL DEFAULT 0,
	per_kg_rate_cents INTEGER NOT NULL DEFAULT 0,
	notes TEXT,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE quotes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	reference TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	status TEXT NOT NULL DEFAULT 'pending',
	customer_name TEXT NOT NULL,
	customer_email TEXT NOT NULL,
	customer_phone TEXT,
	mode TEXT NOT NULL DEFAULT 'lcl',
	notes TEXT,
	parcels_json TEXT NOT NULL,
	selections_json TEXT NOT NULL,
	insurance_json TEXT NOT NULL,
	breakdown_json TEXT NOT NULL,
	total_cents INTEGER NOT NULL
);
`
