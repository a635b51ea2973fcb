//go:build integration

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v
package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ravito/internal/config"
	"ravito/internal/infra"
	"ravito/internal/model"
	"ravito/internal/router"
	"ravito/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const adminPassword = "AdminPass1"

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, srv.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// expect asserts the status and decodes the body into dest when non-nil.
func expect(t *testing.T, resp *http.Response, status int, dest any) {
	t.Helper()
	if resp.StatusCode != status {
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		require.Equalf(t, status, resp.StatusCode, "body: %v", body)
	}
	if dest == nil {
		resp.Body.Close()
		return
	}
	decodeJSON(t, resp, dest)
}

type idResp struct {
	ID string `json:"id"`
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	admin  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("ravito_test"),
		tcPostgres.WithUsername("ravito"),
		tcPostgres.WithPassword("ravito"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                   8000,
		Env:                    "test",
		AllowedOrigins:         "*",
		JWTSecret:              "test-secret-key",
		JWTExpirationHours:     8,
		JWTRefreshHours:        24,
		DatabaseURL:            pgURL,
		RedisURL:               rdURL,
		WorkerPoolSize:         1,
		StorageDriver:          "local",
		StorageLocalPath:       t.TempDir(),
		CommissionRate:         0.08,
		LowStockThreshold:      5,
		CartTTLHours:           1,
		CatalogCacheTTLMinutes: 5,
		CloseLockTTLSeconds:    5,
		EstablishmentFallback:  "Établissement",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	store, err := infra.NewStorage(ctx, cfg)
	require.NoError(t, err)

	// Seed the platform admin
	hash, err := service.HashPassword(adminPassword)
	require.NoError(t, err)
	org := &model.Organization{Name: "RAVITO", Type: model.OrgTypeAdmin}
	require.NoError(t, db.Create(org).Error)
	require.NoError(t, db.Create(&model.User{
		Email: "admin@e2e.test", Phone: "0700000000", FullName: "Admin E2E",
		PasswordHash: hash, Role: model.RoleAdmin, Status: model.UserApproved, OrganizationID: org.ID,
	}).Error)

	srv := httptest.NewServer(router.New(cfg, db, rdb, infra.NewCircuitBreaker(infra.DefaultCBConfig()), store))
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, admin: login(t, srv, "admin@e2e.test", adminPassword)}
}

func login(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()
	var body struct {
		AccessToken string `json:"access_token"`
	}
	expect(t, do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"email": email, "password": password}), ""), http.StatusOK, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

// register creates an account, has the admin approve it and logs in.
func (env *testEnv) register(t *testing.T, role, email, org string, zoneIDs ...string) string {
	t.Helper()
	var user idResp
	expect(t, do(t, env.server, "POST", "/v1/auth/register", jsonBody(t, map[string]any{
		"email":             email,
		"phone":             "0712345678",
		"full_name":         "Kouassi Yao",
		"password":          "SecureP1",
		"role":              role,
		"organization_name": org,
		"zone_ids":          zoneIDs,
	}), ""), http.StatusCreated, &user)

	resp := do(t, env.server, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"email": email, "password": "SecureP1"}), "")
	expect(t, resp, http.StatusForbidden, nil)

	expect(t, do(t, env.server, "PATCH", "/v1/admin/users/"+user.ID+"/approve", nil, env.admin), http.StatusOK, nil)
	return login(t, env.server, email, "SecureP1")
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Order lifecycle: cart → checkout → offer → accept → pay → deliver → rate
func TestE2E_OrderLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	srv := env.server

	var zone idResp
	expect(t, do(t, srv, "POST", "/v1/admin/zones",
		jsonBody(t, map[string]any{"name": "Cocody"}), env.admin), http.StatusCreated, &zone)

	var product idResp
	expect(t, do(t, srv, "POST", "/v1/admin/products", jsonBody(t, map[string]any{
		"reference": "flag-65", "name": "Flag 65cl", "brand": "Solibra", "category": "biere",
		"crate_type": "c12", "crate_price": 7800, "consigne_price": 3000, "unit_price": 650,
	}), env.admin), http.StatusCreated, &product)

	client := env.register(t, "client", "maquis@e2e.test", "Maquis Le Baobab")
	supplier := env.register(t, "supplier", "depot@e2e.test", "Dépôt Yao", zone.ID)

	var requests []idResp
	expect(t, do(t, srv, "GET", "/v1/admin/zone-requests?status=pending", nil, env.admin), http.StatusOK, &requests)
	require.Len(t, requests, 1)
	expect(t, do(t, srv, "PATCH", "/v1/admin/zone-requests/"+requests[0].ID+"/approve", nil, env.admin), http.StatusOK, nil)

	// Cart
	var cart struct {
		Totals struct {
			Total string `json:"total"`
		} `json:"totals"`
	}
	expect(t, do(t, srv, "POST", "/v1/cart/actions", jsonBody(t, map[string]any{
		"type": "add_item", "product_id": product.ID, "quantity": 12, "with_consigne": true,
	}), client), http.StatusOK, &cart)
	assert.Equal(t, "129600", cart.Totals.Total)

	var order struct {
		ID     string `json:"id"`
		Number string `json:"number"`
		Status string `json:"status"`
		Offers []struct {
			ID string `json:"id"`
		} `json:"offers"`
		Commission string `json:"commission"`
		Total      string `json:"total"`
	}
	expect(t, do(t, srv, "POST", "/v1/orders", jsonBody(t, map[string]any{
		"zone_id": zone.ID, "delivery_address": "Rue des Jardins, Cocody",
	}), client), http.StatusCreated, &order)
	assert.Equal(t, "pending", order.Status)
	orderPath := "/v1/orders/" + order.ID

	// Supplier sees it in its zone and submits an offer
	expect(t, do(t, srv, "POST", orderPath+"/offers", jsonBody(t, map[string]any{
		"amount_ht": 80000, "estimated_minutes": 45,
	}), supplier), http.StatusCreated, &order)
	assert.Equal(t, "offers-received", order.Status)
	require.Len(t, order.Offers, 1)

	resp := do(t, srv, "POST", orderPath+"/offers", jsonBody(t, map[string]any{
		"amount_ht": 75000, "estimated_minutes": 30,
	}), supplier)
	expect(t, resp, http.StatusConflict, nil)

	expect(t, do(t, srv, "POST", orderPath+"/offers/"+order.Offers[0].ID+"/accept", nil, client), http.StatusOK, &order)
	assert.Equal(t, "awaiting-payment", order.Status)
	assert.Equal(t, "6400", order.Commission)

	// Supplier cannot skip payment
	resp = do(t, srv, "POST", orderPath+"/status", jsonBody(t, map[string]string{"event": "preparation_started"}), supplier)
	expect(t, resp, http.StatusConflict, nil)

	expect(t, do(t, srv, "POST", orderPath+"/payment", nil, client), http.StatusOK, &order)
	assert.Equal(t, "paid", order.Status)

	for _, step := range []struct {
		token, event, status string
	}{
		{supplier, "preparation_started", "preparing"},
		{supplier, "delivery_started", "delivering"},
		{client, "delivery_confirmed", "awaiting-rating"},
	} {
		expect(t, do(t, srv, "POST", orderPath+"/status", jsonBody(t, map[string]string{"event": step.event}), step.token),
			http.StatusOK, &order)
		assert.Equal(t, step.status, order.Status)
	}

	expect(t, do(t, srv, "POST", orderPath+"/rating", jsonBody(t, map[string]any{"score": 5}), client), http.StatusOK, &order)
	assert.Equal(t, "delivered", order.Status)

	// Export
	resp = do(t, srv, "GET", "/v1/orders/export.csv", nil, client)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var csv bytes.Buffer
	_, _ = csv.ReadFrom(resp.Body)
	resp.Body.Close()
	assert.Contains(t, csv.String(), order.Number)
}

// Daily sheet: open → count → close → PDF, then the annual report sees it
func TestE2E_DailySheetClosure(t *testing.T) {
	env := setupTestEnv(t)
	srv := env.server

	expect(t, do(t, srv, "POST", "/v1/admin/products", jsonBody(t, map[string]any{
		"reference": "castel-65", "name": "Castel 65cl", "brand": "Solibra", "category": "biere",
		"crate_type": "c12", "crate_price": 8400, "consigne_price": 3000, "unit_price": 700,
	}), env.admin), http.StatusCreated, nil)

	client := env.register(t, "client", "bar@e2e.test", "Bar Le Palmier")

	type sheetResp struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Summary struct {
			Sales []struct {
				LineID string `json:"line_id"`
			} `json:"sales"`
			Packaging []struct {
				ID string `json:"id"`
			} `json:"packaging"`
			TotalRevenue string `json:"total_revenue"`
		} `json:"summary"`
	}
	var sheet sheetResp
	expect(t, do(t, srv, "POST", "/v1/daily-sheets", jsonBody(t, map[string]any{
		"date": "2024-03-14", "opening_cash": 10000,
	}), client), http.StatusCreated, &sheet)
	require.Len(t, sheet.Summary.Sales, 1)
	sheetPath := "/v1/daily-sheets/" + sheet.ID

	expect(t, do(t, srv, "POST", sheetPath+"/close", jsonBody(t, map[string]any{"confirm": true}), client),
		http.StatusUnprocessableEntity, nil)

	expect(t, do(t, srv, "PATCH", sheetPath+"/stock-lines/"+sheet.Summary.Sales[0].LineID, jsonBody(t, map[string]any{
		"supply_quantity": 24, "final_stock": 4,
	}), client), http.StatusOK, &sheet)
	for _, p := range sheet.Summary.Packaging {
		expect(t, do(t, srv, "PATCH", sheetPath+"/packaging/"+p.ID, jsonBody(t, map[string]any{
			"full_end": 1, "empty_end": 1,
		}), client), http.StatusOK, nil)
	}
	expect(t, do(t, srv, "POST", sheetPath+"/expenses", jsonBody(t, map[string]any{
		"label": "Glace", "category": "supplies", "amount": 2000,
	}), client), http.StatusCreated, nil)

	// PDF only once closed
	expect(t, do(t, srv, "GET", sheetPath+"/pdf", nil, client), http.StatusConflict, nil)

	expect(t, do(t, srv, "POST", sheetPath+"/close", jsonBody(t, map[string]any{
		"confirm": true, "closing_cash": 20000,
	}), client), http.StatusOK, &sheet)
	assert.Equal(t, "closed", sheet.Status)

	expect(t, do(t, srv, "PATCH", sheetPath+"/credit", jsonBody(t, map[string]any{"credit_sales": 1000}), client),
		http.StatusConflict, nil)

	resp := do(t, srv, "GET", sheetPath+"/pdf", nil, client)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	var report struct {
		KPIs struct {
			DaysWorked   int    `json:"days_worked"`
			TotalRevenue string `json:"total_revenue"`
		} `json:"kpis"`
		Monthly []struct {
			DaysWorked int `json:"days_worked"`
		} `json:"monthly"`
	}
	expect(t, do(t, srv, "GET", "/v1/reports/annual?year=2024", nil, client), http.StatusOK, &report)
	assert.Equal(t, 1, report.KPIs.DaysWorked)
	require.Len(t, report.Monthly, 12)
	assert.Equal(t, 1, report.Monthly[2].DaysWorked)
	assert.Equal(t, sheet.Summary.TotalRevenue, report.KPIs.TotalRevenue)

	resp = do(t, srv, "GET", fmt.Sprintf("/v1/reports/annual/xlsx?year=%d", 2024), nil, client)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_RequiresAuth(t *testing.T) {
	env := setupTestEnv(t)
	expect(t, do(t, env.server, "GET", "/v1/orders", nil, ""), http.StatusUnauthorized, nil)
	expect(t, do(t, env.server, "GET", "/v1/admin/users", nil, login(t, env.server, "admin@e2e.test", adminPassword)),
		http.StatusOK, nil)
	expect(t, do(t, env.server, "GET", "/v1/zones", nil, ""), http.StatusOK, nil)
	expect(t, do(t, env.server, "GET", "/health", nil, ""), http.StatusOK, nil)
}
