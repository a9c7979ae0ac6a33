package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rental/internal/apperr"
	"rental/internal/domain/pricingrules"
	"rental/internal/domain/settings"
	"rental/internal/snapshot"

	"github.com/stretchr/testify/require"
)

type fakeRules struct {
	rows []pricingrules.Rule
}

func (f *fakeRules) List(context.Context) ([]pricingrules.Rule, error) { return f.rows, nil }

func (f *fakeRules) ListActive(ctx context.Context) ([]pricingrules.Rule, error) {
	var out []pricingrules.Rule
	for _, r := range f.rows {
		if r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRules) GetByID(_ context.Context, id int64) (*pricingrules.Rule, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakeRules) Create(_ context.Context, rule *pricingrules.Rule) error {
	rule.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *rule)
	return nil
}

func (f *fakeRules) Update(_ context.Context, rule *pricingrules.Rule) error {
	for i, r := range f.rows {
		if r.ID == rule.ID {
			f.rows[i] = *rule
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (f *fakeRules) Delete(_ context.Context, id int64) error {
	for i, r := range f.rows {
		if r.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

func putJSON(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPut, path, bytes.NewReader(buf))
}

func newPricingApp(t *testing.T) (*application, *fakeRules) {
	t.Helper()
	app := newTestApplication(t)
	rules := &fakeRules{rows: []pricingrules.Rule{
		{ID: 1, Name: "Summer", StartDate: day(t, "2026-07-01"), EndDate: day(t, "2026-08-31"), NightlyPrice: 140, Active: true},
		{ID: 2, Name: "Old Easter", StartDate: day(t, "2026-04-01"), EndDate: day(t, "2026-04-10"), NightlyPrice: 110, Active: false},
	}}
	app.store.PricingRules = rules
	return app, rules
}

func TestCreatePricingRuleHandler(t *testing.T) {
	app, rules := newPricingApp(t)
	reload := trackView(t, app, snapshot.ViewPricing)

	rr := httptest.NewRecorder()
	app.createPricingRuleHandler(rr, postJSON(t, "/v1/admin/pricing-rules", PricingRulePayload{
		Name:         " August peak ",
		StartDate:    "2026-08-01",
		EndDate:      "2026-08-20",
		NightlyPrice: 180.456,
	}))
	require.Equal(t, http.StatusCreated, rr.Code)

	var body struct {
		Data PricingRuleResponse `json:"data"`
	}
	decodeBody(t, rr, &body)
	require.Equal(t, "August peak", body.Data.Rule.Name)
	require.Equal(t, 180.46, body.Data.Rule.NightlyPrice)
	require.True(t, body.Data.Rule.Active)
	require.Len(t, body.Data.Overlapping, 1)
	require.Equal(t, int64(1), body.Data.Overlapping[0].ID)

	require.Len(t, rules.rows, 3)
	require.Equal(t, 2, reload())
}

func TestCreatePricingRuleHandler_InactiveRulesAreNotOverlaps(t *testing.T) {
	app, _ := newPricingApp(t)

	rr := httptest.NewRecorder()
	app.createPricingRuleHandler(rr, postJSON(t, "/v1/admin/pricing-rules", PricingRulePayload{
		Name:         "Easter",
		StartDate:    "2026-04-03",
		EndDate:      "2026-04-06",
		NightlyPrice: 120,
	}))
	require.Equal(t, http.StatusCreated, rr.Code)

	var body struct {
		Data PricingRuleResponse `json:"data"`
	}
	decodeBody(t, rr, &body)
	require.NotNil(t, body.Data.Overlapping)
	require.Empty(t, body.Data.Overlapping)
}

func TestCreatePricingRuleHandler_EndBeforeStart(t *testing.T) {
	app, rules := newPricingApp(t)
	reload := trackView(t, app, snapshot.ViewPricing)

	rr := httptest.NewRecorder()
	app.createPricingRuleHandler(rr, postJSON(t, "/v1/admin/pricing-rules", PricingRulePayload{
		Name:         "Backwards",
		StartDate:    "2026-09-10",
		EndDate:      "2026-09-01",
		NightlyPrice: 100,
	}))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "end_date must not be before start_date")

	require.Len(t, rules.rows, 2)
	require.Equal(t, 1, reload())
}

func TestCreatePricingRuleHandler_SingleDayRule(t *testing.T) {
	app, _ := newPricingApp(t)

	rr := httptest.NewRecorder()
	app.createPricingRuleHandler(rr, postJSON(t, "/v1/admin/pricing-rules", PricingRulePayload{
		Name:         "New Year's Eve",
		StartDate:    "2026-12-31",
		EndDate:      "2026-12-31",
		NightlyPrice: 250,
	}))
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestUpdatePricingRuleHandler(t *testing.T) {
	app, rules := newPricingApp(t)
	reload := trackView(t, app, snapshot.ViewPricing)
	inactive := false

	req := withURLParam(putJSON(t, "/v1/admin/pricing-rules/1", PricingRulePayload{
		Name:         "Summer",
		StartDate:    "2026-06-15",
		EndDate:      "2026-08-31",
		NightlyPrice: 150,
		Active:       &inactive,
	}), "ruleID", "1")
	rr := httptest.NewRecorder()
	app.updatePricingRuleHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Equal(t, day(t, "2026-06-15"), rules.rows[0].StartDate)
	require.Equal(t, 150.0, rules.rows[0].NightlyPrice)
	require.False(t, rules.rows[0].Active)
	require.Equal(t, 2, reload())
}

func TestUpdatePricingRuleHandler_Rejections(t *testing.T) {
	app, rules := newPricingApp(t)
	reload := trackView(t, app, snapshot.ViewPricing)
	payload := PricingRulePayload{Name: "Summer", StartDate: "2026-08-31", EndDate: "2026-07-01", NightlyPrice: 150}

	rr := httptest.NewRecorder()
	app.updatePricingRuleHandler(rr, withURLParam(putJSON(t, "/v1/admin/pricing-rules/1", payload), "ruleID", "1"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, day(t, "2026-07-01"), rules.rows[0].StartDate)

	payload.StartDate, payload.EndDate = "2026-07-01", "2026-08-31"
	rr = httptest.NewRecorder()
	app.updatePricingRuleHandler(rr, withURLParam(putJSON(t, "/v1/admin/pricing-rules/9", payload), "ruleID", "9"))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	app.updatePricingRuleHandler(rr, withURLParam(putJSON(t, "/v1/admin/pricing-rules/x", payload), "ruleID", "x"))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	require.Equal(t, 1, reload())
}

func TestDeletePricingRuleHandler(t *testing.T) {
	app, rules := newPricingApp(t)
	reload := trackView(t, app, snapshot.ViewPricing)

	rr := httptest.NewRecorder()
	app.deletePricingRuleHandler(rr, withURLParam(httptest.NewRequest(http.MethodDelete, "/v1/admin/pricing-rules/2", nil), "ruleID", "2"))
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, rules.rows, 1)
	require.Equal(t, 2, reload())
}

func TestUpdateSettingsHandler(t *testing.T) {
	app := newTestApplication(t)
	store := app.store.Settings.(*fakeSettings)
	pricingView := trackView(t, app, snapshot.ViewPricing)
	settingsView := trackView(t, app, snapshot.ViewSettings)
	availabilityView := trackView(t, app, snapshot.ViewAvailability)

	st := settings.Defaults()
	st.BasePrice = 92.499
	st.MaxGuests = 6

	rr := httptest.NewRecorder()
	app.updateSettingsHandler(rr, putJSON(t, "/v1/admin/settings", st))
	require.Equal(t, http.StatusOK, rr.Code)

	require.NotNil(t, store.saved)
	require.Equal(t, 92.5, store.saved.BasePrice)
	require.Equal(t, 6, store.saved.MaxGuests)

	require.Equal(t, 2, pricingView())
	require.Equal(t, 2, settingsView())
	require.Equal(t, 1, availabilityView())
}

func TestUpdateSettingsHandler_Invalid(t *testing.T) {
	app := newTestApplication(t)
	store := app.store.Settings.(*fakeSettings)
	settingsView := trackView(t, app, snapshot.ViewSettings)

	st := settings.Defaults()
	st.CheckInTime = "4pm"

	rr := httptest.NewRecorder()
	app.updateSettingsHandler(rr, putJSON(t, "/v1/admin/settings", st))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Nil(t, store.saved)
	require.Equal(t, 1, settingsView())

	rr = httptest.NewRecorder()
	app.updateSettingsHandler(rr, putJSON(t, "/v1/admin/settings", map[string]any{"base_price": 90, "wifi_password": "x"}))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Nil(t, store.saved)
}
