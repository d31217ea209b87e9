package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/levantline/freightdesk/internal/pricing"
	"github.com/levantline/freightdesk/internal/quotes"
	"github.com/levantline/freightdesk/internal/tariff"
)

type ratesRequest struct {
	WeightRateCents       int64  `json:"weight_rate_cents" validate:"min=0"`
	VolumeRateCents       int64  `json:"volume_rate_cents" validate:"min=0"`
	MinimumCents          int64  `json:"minimum_cents" validate:"min=0"`
	InsuranceRateBps      int64  `json:"insurance_rate_bps" validate:"min=0,max=10000"`
	InsuranceMinimumCents int64  `json:"insurance_minimum_cents" validate:"min=0"`
	Currency              string `json:"currency" validate:"required,len=3,uppercase"`
}

type packagingRequest struct {
	Code           string `json:"code" validate:"required,max=64"`
	Name           string `json:"name" validate:"required,max=120"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"min=0"`
	Notes          string `json:"notes" validate:"max=500"`
	Active         bool   `json:"active"`
}

type tierRequest struct {
	Code           string `json:"code" validate:"required,max=64"`
	Kind           string `json:"kind" validate:"required,oneof=province zone"`
	Name           string `json:"name" validate:"required,max=120"`
	BaseFeeCents   int64  `json:"base_fee_cents" validate:"min=0"`
	PerKgRateCents int64  `json:"per_kg_rate_cents" validate:"min=0"`
	Notes          string `json:"notes" validate:"max=500"`
	Active         bool   `json:"active"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed booked cancelled"`
}

func (s *server) handleRatesGet(w http.ResponseWriter, r *http.Request) {
	rates, err := s.tariffs.Rates()
	if err != nil {
		s.log.Error("load tariff rates", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "rates_failed", "failed to load rate config")
		return
	}

	s.respondJSON(w, http.StatusOK, rates)
}

func (s *server) handleRatesUpdate(w http.ResponseWriter, r *http.Request) {
	var req ratesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_rates", err.Error())
		return
	}

	rates := tariff.Rates{
		WeightRate:       pricing.Cents(req.WeightRateCents),
		VolumeRate:       pricing.Cents(req.VolumeRateCents),
		MinimumCharge:    pricing.Cents(req.MinimumCents),
		InsuranceRateBps: req.InsuranceRateBps,
		InsuranceMinimum: pricing.Cents(req.InsuranceMinimumCents),
		Currency:         req.Currency,
	}
	if err := s.tariffs.UpdateRates(rates); err != nil {
		s.log.Error("update tariff rates", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "rates_failed", "failed to save rate config")
		return
	}

	s.respondJSON(w, http.StatusOK, rates)
}

func (s *server) handlePackagingList(w http.ResponseWriter, r *http.Request) {
	options, err := s.tariffs.ListPackaging()
	if err != nil {
		s.log.Error("list packaging options", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "packaging_failed", "failed to load packaging options")
		return
	}

	s.respondJSON(w, http.StatusOK, options)
}

func (s *server) handlePackagingCreate(w http.ResponseWriter, r *http.Request) {
	opt, ok := s.parsePackaging(w, r)
	if !ok {
		return
	}

	id, err := s.tariffs.CreatePackaging(opt)
	if err != nil {
		s.log.Error("create packaging option", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "packaging_failed", "failed to create packaging option")
		return
	}

	opt.ID = id
	s.respondJSON(w, http.StatusCreated, opt)
}

func (s *server) handlePackagingUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "invalid_id", "invalid packaging option id")
		return
	}

	opt, ok := s.parsePackaging(w, r)
	if !ok {
		return
	}

	if err := s.tariffs.UpdatePackaging(id, opt); err != nil {
		if errors.Is(err, tariff.ErrNotFound) {
			s.respondError(w, r, http.StatusNotFound, "packaging_not_found", "no packaging option with that id")
			return
		}
		s.log.Error("update packaging option", zap.Error(err), zap.Int64("id", id))
		s.respondError(w, r, http.StatusInternalServerError, "packaging_failed", "failed to update packaging option")
		return
	}

	opt.ID = id
	s.respondJSON(w, http.StatusOK, opt)
}

func (s *server) parsePackaging(w http.ResponseWriter, r *http.Request) (tariff.PackagingOption, bool) {
	var req packagingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return tariff.PackagingOption{}, false
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_packaging", err.Error())
		return tariff.PackagingOption{}, false
	}

	return tariff.PackagingOption{
		Code:      strings.TrimSpace(req.Code),
		Name:      strings.TrimSpace(req.Name),
		UnitPrice: pricing.Cents(req.UnitPriceCents),
		Notes:     strings.TrimSpace(req.Notes),
		Active:    req.Active,
	}, true
}

func (s *server) handleTiersList(w http.ResponseWriter, r *http.Request) {
	tiers, err := s.tariffs.ListTiers()
	if err != nil {
		s.log.Error("list destination tiers", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "tiers_failed", "failed to load destination tiers")
		return
	}

	s.respondJSON(w, http.StatusOK, tiers)
}

func (s *server) handleTierCreate(w http.ResponseWriter, r *http.Request) {
	tier, ok := s.parseTier(w, r)
	if !ok {
		return
	}

	id, err := s.tariffs.CreateTier(tier)
	if err != nil {
		s.log.Error("create destination tier", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "tiers_failed", "failed to create destination tier")
		return
	}

	tier.ID = id
	s.respondJSON(w, http.StatusCreated, tier)
}

func (s *server) handleTierUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, r, http.StatusBadRequest, "invalid_id", "invalid destination tier id")
		return
	}

	tierRow, ok := s.parseTier(w, r)
	if !ok {
		return
	}

	if err := s.tariffs.UpdateTier(id, tierRow); err != nil {
		if errors.Is(err, tariff.ErrNotFound) {
			s.respondError(w, r, http.StatusNotFound, "tier_not_found", "no destination tier with that id")
			return
		}
		s.log.Error("update destination tier", zap.Error(err), zap.Int64("id", id))
		s.respondError(w, r, http.StatusInternalServerError, "tiers_failed", "failed to update destination tier")
		return
	}

	tierRow.ID = id
	s.respondJSON(w, http.StatusOK, tierRow)
}

func (s *server) parseTier(w http.ResponseWriter, r *http.Request) (tariff.Tier, bool) {
	var req tierRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return tariff.Tier{}, false
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_tier", err.Error())
		return tariff.Tier{}, false
	}

	return tariff.Tier{
		Code:      strings.TrimSpace(req.Code),
		Kind:      req.Kind,
		Name:      strings.TrimSpace(req.Name),
		BaseFee:   pricing.Cents(req.BaseFeeCents),
		PerKgRate: pricing.Cents(req.PerKgRateCents),
		Notes:     strings.TrimSpace(req.Notes),
		Active:    req.Active,
	}, true
}

func (s *server) handleQuotesSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	summaries, err := s.quotes.List(query)
	if err != nil {
		s.log.Error("list quotes", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, "quotes_failed", "failed to load quotes")
		return
	}

	s.respondJSON(w, http.StatusOK, summaries)
}

func (s *server) handleQuoteStatus(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	err := s.quotes.UpdateStatus(reference, req.Status)
	switch {
	case errors.Is(err, quotes.ErrNotFound):
		s.respondError(w, r, http.StatusNotFound, "quote_not_found", "no quote with that reference")
		return
	case errors.Is(err, quotes.ErrBadTransition):
		s.respondError(w, r, http.StatusConflict, "invalid_transition", err.Error())
		return
	case err != nil:
		s.log.Error("update quote status", zap.Error(err), zap.String("reference", reference))
		s.respondError(w, r, http.StatusInternalServerError, "quotes_failed", "failed to update quote status")
		return
	}

	quote, err := s.quotes.Get(reference)
	if err != nil {
		s.log.Error("reload quote", zap.Error(err), zap.String("reference", reference))
		s.respondError(w, r, http.StatusInternalServerError, "quotes_failed", "failed to load quote")
		return
	}

	s.respondJSON(w, http.StatusOK, quote)
}
