package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"rental/internal/apperr"
	"rental/internal/calendar"
	"rental/internal/domain/pricingrules"
	"rental/internal/domain/settings"
	"rental/internal/pricing"
	"rental/internal/snapshot"
)

type PricingRulePayload struct {
	Name         string  `json:"name" validate:"required,max=120"`
	StartDate    string  `json:"start_date" validate:"required,isoday"`
	EndDate      string  `json:"end_date" validate:"required,isoday"`
	NightlyPrice float64 `json:"nightly_price" validate:"gt=0"`
	MinStay      *int    `json:"min_stay,omitempty" validate:"omitempty,gte=1,lte=60"`
	Active       *bool   `json:"active,omitempty"`
}

// PricingRuleResponse carries the saved rule and every other rule sharing
// a day with it. The earliest-starting rule wins on shared days.
type PricingRuleResponse struct {
	Rule        pricingrules.Rule   `json:"rule"`
	Overlapping []pricingrules.Rule `json:"overlapping"`
}

func (p PricingRulePayload) apply(rule *pricingrules.Rule) error {
	start, _ := calendar.ParseDay(p.StartDate)
	end, _ := calendar.ParseDay(p.EndDate)
	if end.Before(start) {
		return fmt.Errorf("end_date must not be before start_date")
	}
	rule.Name = strings.TrimSpace(p.Name)
	rule.StartDate = start
	rule.EndDate = end
	rule.NightlyPrice = pricing.Round2(p.NightlyPrice)
	rule.MinStay = p.MinStay
	rule.Active = true
	if p.Active != nil {
		rule.Active = *p.Active
	}
	return nil
}

func (app *application) overlapWarnings(ctx context.Context, rule pricingrules.Rule) []pricingrules.Rule {
	all, err := app.store.PricingRules.List(ctx)
	if err != nil {
		app.logger.Warnw("could not check overlapping pricing rules", "rule_id", rule.ID, "error", err)
		return []pricingrules.Rule{}
	}
	var active []pricingrules.Rule
	for _, other := range all {
		if other.Active {
			active = append(active, other)
		}
	}
	out := pricing.Overlapping(rule, active)
	if out == nil {
		out = []pricingrules.Rule{}
	}
	return out
}

// listPricingRulesHandler godoc
//
//	@Summary		List pricing rules
//	@Description	Active and inactive rules in lookup order.
//	@Tags			admin-pricing
//	@Produce		json
//	@Success		200	{array}	pricingrules.Rule
//	@Security		ApiKeyAuth
//	@Router			/admin/pricing-rules [get]
func (app *application) listPricingRulesHandler(w http.ResponseWriter, r *http.Request) {
	rules, err := app.store.PricingRules.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if rules == nil {
		rules = []pricingrules.Rule{}
	}
	if err := app.jsonResponse(w, http.StatusOK, rules); err != nil {
		app.internalServerError(w, r, err)
	}
}

// createPricingRuleHandler godoc
//
//	@Summary		Create a pricing rule
//	@Tags			admin-pricing
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		PricingRulePayload	true	"Rule"
//	@Success		201		{object}	PricingRuleResponse
//	@Failure		400		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/pricing-rules [post]
func (app *application) createPricingRuleHandler(w http.ResponseWriter, r *http.Request) {
	var payload PricingRulePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var rule pricingrules.Rule
	if err := payload.apply(&rule); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()
	if err := app.store.PricingRules.Create(ctx, &rule); err != nil {
		app.domainErrorResponse(w, r, apperr.Storage("create pricing rule", err))
		return
	}
	app.views.Touch(ctx, snapshot.PricingRules)
	app.logger.Infow("pricing rule created", "rule_id", rule.ID, "name", rule.Name, "price", rule.NightlyPrice)

	resp := PricingRuleResponse{Rule: rule, Overlapping: app.overlapWarnings(ctx, rule)}
	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updatePricingRuleHandler godoc
//
//	@Summary		Update a pricing rule
//	@Tags			admin-pricing
//	@Accept			json
//	@Produce		json
//	@Param			ruleID	path		int					true	"Rule ID"
//	@Param			payload	body		PricingRulePayload	true	"Rule"
//	@Success		200		{object}	PricingRuleResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/pricing-rules/{ruleID} [put]
func (app *application) updatePricingRuleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "ruleID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload PricingRulePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx := r.Context()
	rule, err := app.store.PricingRules.GetByID(ctx, id)
	if err != nil {
		app.domainErrorResponse(w, r, apperr.Storage("get pricing rule", err))
		return
	}
	if err := payload.apply(rule); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := app.store.PricingRules.Update(ctx, rule); err != nil {
		app.domainErrorResponse(w, r, apperr.Storage("update pricing rule", err))
		return
	}
	app.views.Touch(ctx, snapshot.PricingRules)
	app.logger.Infow("pricing rule updated", "rule_id", rule.ID, "active", rule.Active, "price", rule.NightlyPrice)

	resp := PricingRuleResponse{Rule: *rule, Overlapping: app.overlapWarnings(ctx, *rule)}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deletePricingRuleHandler godoc
//
//	@Summary		Delete a pricing rule
//	@Tags			admin-pricing
//	@Param			ruleID	path	int	true	"Rule ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/pricing-rules/{ruleID} [delete]
func (app *application) deletePricingRuleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "ruleID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.PricingRules.Delete(r.Context(), id); err != nil {
		app.domainErrorResponse(w, r, apperr.Storage("delete pricing rule", err))
		return
	}
	app.views.Touch(r.Context(), snapshot.PricingRules)
	app.logger.Infow("pricing rule deleted", "rule_id", id)

	w.WriteHeader(http.StatusNoContent)
}

// getSettingsHandler godoc
//
//	@Summary		Site settings
//	@Tags			admin-pricing
//	@Produce		json
//	@Success		200	{object}	settings.Settings
//	@Security		ApiKeyAuth
//	@Router			/admin/settings [get]
func (app *application) getSettingsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := snapshot.Load(r.Context(), app.views, snapshot.ViewSettings, "all", func(ctx context.Context) (settings.Settings, error) {
		st, unknown, err := app.store.Settings.Load(ctx)
		if err != nil {
			return st, apperr.Storage("load settings", err)
		}
		if len(unknown) > 0 {
			app.logger.Warnw("ignoring unknown settings keys", "keys", unknown)
		}
		return st, nil
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if err := app.jsonResponse(w, http.StatusOK, st); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateSettingsHandler godoc
//
//	@Summary		Save site settings
//	@Description	Every key is written. Existing bookings keep their stored price.
//	@Tags			admin-pricing
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		settings.Settings	true	"Settings"
//	@Success		200		{object}	settings.Settings
//	@Failure		400		{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/admin/settings [put]
func (app *application) updateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var payload settings.Settings
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.BasePrice = pricing.Round2(payload.BasePrice)

	if err := app.store.Settings.Save(r.Context(), payload); err != nil {
		app.domainErrorResponse(w, r, apperr.Storage("save settings", err))
		return
	}
	app.views.Touch(r.Context(), snapshot.Settings)
	app.logger.Infow("settings saved", "base_price", payload.BasePrice, "max_guests", payload.MaxGuests)

	if err := app.jsonResponse(w, http.StatusOK, payload); err != nil {
		app.internalServerError(w, r, err)
	}
}
