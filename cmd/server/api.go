package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/levantline/freightdesk/internal/pricing"
	"github.com/levantline/freightdesk/internal/quotes"
	"github.com/levantline/freightdesk/internal/tariff"
)

// estimateRequest carries the wizard state needed to price a shipment. The
// estimator is tolerant: missing or bogus numbers contribute zero, so a
// half-filled form still gets a number back.
type estimateRequest struct {
	Parcels         []pricing.Parcel  `json:"parcels"`
	Packaging       map[string]int    `json:"packaging"`
	DestinationTier string            `json:"destination_tier"`
	Insurance       pricing.Insurance `json:"insurance"`
}

// quoteCreateRequest is a full quote submission. Unlike estimates this is
// validated: a booking request with no customer or no parcels is useless.
type quoteCreateRequest struct {
	CustomerName    string            `json:"customer_name" validate:"required,max=120"`
	CustomerEmail   string            `json:"customer_email" validate:"required,email"`
	CustomerPhone   string            `json:"customer_phone" validate:"omitempty,max=40"`
	Mode            string            `json:"mode" validate:"omitempty,oneof=lcl fcl"`
	Notes           string            `json:"notes" validate:"max=2000"`
	Parcels         []pricing.Parcel  `json:"parcels" validate:"required,min=1"`
	Packaging       map[string]int    `json:"packaging"`
	DestinationTier string            `json:"destination_tier" validate:"omitempty,max=64"`
	Insurance       pricing.Insurance `json:"insurance"`
}

// tariffResponse is the public view of the current tariff: the rates plus
// the orderable options with their display names.
type tariffResponse struct {
	Rates     tariff.Rates             `json:"rates"`
	Packaging []tariff.PackagingOption `json:"packaging"`
	Tiers     []tariff.Tier            `json:"destination_tiers"`
}

func (s *server) handleTariff(w http.ResponseWriter, r *http.Request) {
	rates, err := s.tariffs.Rates()
	if err != nil {
		s.log.Error("load tariff rates", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "tariff_unavailable", "failed to load tariff")
		return
	}

	options, err := s.tariffs.ListPackaging()
	if err != nil {
		s.log.Error("load packaging options", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "tariff_unavailable", "failed to load tariff")
		return
	}

	tiers, err := s.tariffs.ListTiers()
	if err != nil {
		s.log.Error("load destination tiers", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "tariff_unavailable", "failed to load tariff")
		return
	}

	resp := tariffResponse{
		Rates:     rates,
		Packaging: make([]tariff.PackagingOption, 0, len(options)),
		Tiers:     make([]tariff.Tier, 0, len(tiers)),
	}
	for _, opt := range options {
		if opt.Active {
			resp.Packaging = append(resp.Packaging, opt)
		}
	}
	for _, tier := range tiers {
		if tier.Active {
			resp.Tiers = append(resp.Tiers, tier)
		}
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	t, err := s.tariffs.Load()
	if err != nil {
		s.log.Error("load tariff", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "tariff_unavailable", "failed to load tariff")
		return
	}

	sel := pricing.Selections{Packaging: req.Packaging, DestinationTier: req.DestinationTier}
	breakdown := pricing.Estimate(req.Parcels, sel, req.Insurance, t)

	s.respondJSON(w, http.StatusOK, breakdown)
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	var req quoteCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_submission", err.Error())
		return
	}
	if req.Insurance.Enabled && req.Insurance.DeclaredValue <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "invalid_submission", "declared goods value is required when insurance is enabled")
		return
	}

	t, err := s.tariffs.Load()
	if err != nil {
		s.log.Error("load tariff", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "tariff_unavailable", "failed to load tariff")
		return
	}

	created, err := s.quotes.Create(quotes.Submission{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Mode:          req.Mode,
		Parcels:       req.Parcels,
		Selections:    pricing.Selections{Packaging: req.Packaging, DestinationTier: req.DestinationTier},
		Insurance:     req.Insurance,
		Notes:         req.Notes,
	}, t)
	if err != nil {
		s.log.Error("create quote", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "quote_failed", "failed to create quote")
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	quote, err := s.quotes.Get(reference)
	if errors.Is(err, quotes.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, "quote_not_found", "no quote with that reference")
		return
	}
	if err != nil {
		s.log.Error("load quote", zap.Error(err), zap.String("reference", reference))
		s.respondError(w, r, http.StatusInternalServerError, "quote_failed", "failed to load quote")
		return
	}

	s.respondJSON(w, http.StatusOK, quote)
}
