package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ravito/internal/annual"
	"ravito/internal/dto"
	"ravito/internal/middleware"
	"ravito/internal/orderflow"
	"ravito/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testUserID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testOrgID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

// ── Helpers ──────────────────────────────────────────────────────────────────

// withClaims stands in for JWTAuth.
func withClaims(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{
			UserID: testUserID.String(),
			OrgID:  testOrgID.String(),
			Role:   role,
			Typ:    middleware.TokenAccess,
		})
		c.Next()
	}
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// ── Fakes ────────────────────────────────────────────────────────────────────

type fakeAuth struct {
	service.AuthService
	loginErr error
	lastReq  dto.RegisterRequest
}

func (f *fakeAuth) Login(_ context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &dto.LoginResponse{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", User: dto.UserResponse{Email: req.Email}}, nil
}

func (f *fakeAuth) Register(_ context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	f.lastReq = req
	return &dto.UserResponse{Email: req.Email, Status: "pending"}, nil
}

func (f *fakeAuth) Me(_ context.Context, id uuid.UUID) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: id.String()}, nil
}

type fakeOrders struct {
	service.OrderService
	actor service.Actor
	event orderflow.Event
	err   error
}

func (f *fakeOrders) AdvanceStatus(_ context.Context, a service.Actor, id uuid.UUID, e orderflow.Event) (*dto.OrderResponse, error) {
	f.actor, f.event = a, e
	if f.err != nil {
		return nil, f.err
	}
	return &dto.OrderResponse{ID: id.String()}, nil
}

func (f *fakeOrders) ExportCSV(_ context.Context, a service.Actor, filter dto.OrderFilter) ([]byte, error) {
	f.actor = a
	return []byte("\ufeffDate;N° commande\n"), nil
}

func (f *fakeOrders) Cancel(_ context.Context, _ service.Actor, _ uuid.UUID, req dto.CancelRequest) (*dto.OrderResponse, error) {
	if !req.Confirm {
		return nil, service.ErrConfirmRequired
	}
	return &dto.OrderResponse{}, nil
}

type fakeSheets struct {
	service.DailySheetService
	closeErr error
}

func (f *fakeSheets) Close(_ context.Context, _ service.Actor, id uuid.UUID, _ dto.CloseSheetRequest) (*dto.DailySheetResponse, error) {
	if f.closeErr != nil {
		return nil, f.closeErr
	}
	return &dto.DailySheetResponse{ID: id.String()}, nil
}

func (f *fakeSheets) PDF(_ context.Context, _ service.Actor, _ uuid.UUID) ([]byte, string, error) {
	return []byte("%PDF-1.3"), "fiche-2024-03-14.pdf", nil
}

type fakeAnnual struct {
	service.AnnualService
	year int
	err  error
}

func (f *fakeAnnual) Report(_ context.Context, orgID uuid.UUID, year int) (*annual.Report, error) {
	f.year = year
	if f.err != nil {
		return nil, f.err
	}
	return &annual.Report{Organization: orgID.String()}, nil
}

// ── writeError ───────────────────────────────────────────────────────────────

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{service.ErrOrderNotFound, http.StatusNotFound, "Commande introuvable"},
		{service.ErrCartEmpty, http.StatusUnprocessableEntity, "Le panier est vide"},
		{service.ErrZoneInUse, http.StatusConflict, "Des commandes en cours utilisent cette zone"},
		{service.ErrRoleNotAllowed, http.StatusForbidden, "Action non autorisée pour votre rôle"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "Email ou mot de passe incorrect"},
		{fmt.Errorf("load: %w", service.ErrAnnualLoad), http.StatusInternalServerError, "Impossible de charger les données annuelles"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "Erreur interne du serveur"},
	}
	for _, tc := range cases {
		r := newEngine()
		r.GET("/", func(c *gin.Context) { writeError(c, tc.err) })
		w := do(r, http.MethodGet, "/", nil)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, tc.detail, decode(t, w)["detail"])
	}
}

func TestWriteError_IncompleteSheet(t *testing.T) {
	r := newEngine()
	r.GET("/", func(c *gin.Context) {
		writeError(c, &service.IncompleteSheetError{Missing: []string{"Flag 65cl", "Castel 65cl"}})
	})
	w := do(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{"Flag 65cl", "Castel 65cl"}, body["missing"])
}

// ── Binding ──────────────────────────────────────────────────────────────────

func TestBind_InvalidJSON(t *testing.T) {
	r := newEngine()
	r.POST("/v1/auth/login", NewAuthHandler(&fakeAuth{}).Login)
	w := do(r, http.MethodPost, "/v1/auth/login", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["detail"], "JSON invalide")
}

func TestRegister_ValidationKeyedByJSONName(t *testing.T) {
	r := newEngine()
	r.POST("/v1/auth/register", NewAuthHandler(&fakeAuth{}).Register)
	w := do(r, http.MethodPost, "/v1/auth/register", map[string]any{
		"email":             "kouassi@example.ci",
		"phone":             "0812345678",
		"full_name":         "Kouassi",
		"password":          "weak",
		"role":              "client",
		"organization_name": "Maquis Le Baobab",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := decode(t, w)["fields"].(map[string]any)
	assert.Equal(t, "phone_ci", fields["phone"])
	assert.Equal(t, "fullname", fields["full_name"])
	assert.Equal(t, "password_policy", fields["password"])
	assert.NotContains(t, fields, "email")
}

func TestRegister_Success(t *testing.T) {
	auth := &fakeAuth{}
	r := newEngine()
	r.POST("/v1/auth/register", NewAuthHandler(auth).Register)
	w := do(r, http.MethodPost, "/v1/auth/register", map[string]any{
		"email":             "kouassi@example.ci",
		"phone":             "+225 07 12 34 56 78",
		"full_name":         "Kouassi Yao",
		"password":          "SecureP1",
		"role":              "supplier",
		"organization_name": "Dépôt Yao",
		"zone_ids":          []string{uuid.NewString()},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "supplier", auth.lastReq.Role)
}

func TestLogin_ForbiddenStatus(t *testing.T) {
	r := newEngine()
	r.POST("/v1/auth/login", NewAuthHandler(&fakeAuth{loginErr: service.ErrAccountPending}).Login)
	w := do(r, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Email: "a@b.ci", Password: "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Votre compte est en attente de validation", decode(t, w)["detail"])
}

func TestPasswordStrength(t *testing.T) {
	r := newEngine()
	r.POST("/v1/auth/password-strength", NewAuthHandler(&fakeAuth{}).PasswordStrength)
	w := do(r, http.MethodPost, "/v1/auth/password-strength", map[string]string{"password": "SecureP1"})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["is_valid"])
	assert.EqualValues(t, 3, body["score"])
}

func TestMe_RequiresClaims(t *testing.T) {
	r := newEngine()
	r.GET("/v1/auth/me", NewAuthHandler(&fakeAuth{}).Me)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/auth/me", nil).Code)

	r = newEngine()
	r.GET("/v1/auth/me", withClaims("client"), NewAuthHandler(&fakeAuth{}).Me)
	w := do(r, http.MethodGet, "/v1/auth/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testUserID.String(), decode(t, w)["id"])
}

// ── Orders ───────────────────────────────────────────────────────────────────

func TestAdvanceStatus_PassesActorAndEvent(t *testing.T) {
	orders := &fakeOrders{}
	r := newEngine()
	r.POST("/v1/orders/:id/status", withClaims("supplier"), NewOrdersHandler(orders).AdvanceStatus)

	id := uuid.New()
	w := do(r, http.MethodPost, "/v1/orders/"+id.String()+"/status", dto.StatusRequest{Event: "delivery_started"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orderflow.DeliveryStarted, orders.event)
	assert.Equal(t, testOrgID, orders.actor.OrgID)
	assert.Equal(t, "supplier", orders.actor.Role)
}

func TestAdvanceStatus_RejectsUnknownEvent(t *testing.T) {
	r := newEngine()
	r.POST("/v1/orders/:id/status", withClaims("supplier"), NewOrdersHandler(&fakeOrders{}).AdvanceStatus)
	w := do(r, http.MethodPost, "/v1/orders/"+uuid.NewString()+"/status", dto.StatusRequest{Event: "offer_accepted"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "oneof", decode(t, w)["fields"].(map[string]any)["event"])
}

func TestAdvanceStatus_Transition409(t *testing.T) {
	r := newEngine()
	r.POST("/v1/orders/:id/status", withClaims("supplier"),
		NewOrdersHandler(&fakeOrders{err: service.ErrTransition}).AdvanceStatus)
	w := do(r, http.MethodPost, "/v1/orders/"+uuid.NewString()+"/status", dto.StatusRequest{Event: "preparation_started"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOrderGet_BadUUID(t *testing.T) {
	r := newEngine()
	r.POST("/v1/orders/:id/status", withClaims("client"), NewOrdersHandler(&fakeOrders{}).AdvanceStatus)
	w := do(r, http.MethodPost, "/v1/orders/42/status", dto.StatusRequest{Event: "delivery_confirmed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancel_EmptyBodyNeedsConfirm(t *testing.T) {
	r := newEngine()
	r.POST("/v1/orders/:id/cancel", withClaims("client"), NewOrdersHandler(&fakeOrders{}).Cancel)

	w := do(r, http.MethodPost, "/v1/orders/"+uuid.NewString()+"/cancel", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/v1/orders/"+uuid.NewString()+"/cancel", dto.CancelRequest{Confirm: true})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExportCSV_Attachment(t *testing.T) {
	r := newEngine()
	r.GET("/v1/orders/export.csv", withClaims("client"), NewOrdersHandler(&fakeOrders{}).Export)
	w := do(r, http.MethodGet, "/v1/orders/export.csv?status=paid", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "commandes-")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\ufeff")))
}

// ── Daily sheets & reports ───────────────────────────────────────────────────

func TestCloseSheet_Incomplete(t *testing.T) {
	sheets := &fakeSheets{closeErr: &service.IncompleteSheetError{Missing: []string{"Flag 65cl"}}}
	r := newEngine()
	r.POST("/v1/daily-sheets/:id/close", withClaims("client"), NewDailySheetsHandler(sheets).Close)

	w := do(r, http.MethodPost, "/v1/daily-sheets/"+uuid.NewString()+"/close", map[string]any{"confirm": true})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []any{"Flag 65cl"}, decode(t, w)["missing"])
}

func TestCloseSheet_Busy(t *testing.T) {
	sheets := &fakeSheets{closeErr: service.ErrSheetBusy}
	r := newEngine()
	r.POST("/v1/daily-sheets/:id/close", withClaims("client"), NewDailySheetsHandler(sheets).Close)
	w := do(r, http.MethodPost, "/v1/daily-sheets/"+uuid.NewString()+"/close", map[string]any{"confirm": true})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSheetPDF(t *testing.T) {
	r := newEngine()
	r.GET("/v1/daily-sheets/:id/pdf", withClaims("client"), NewDailySheetsHandler(&fakeSheets{}).PDF)
	w := do(r, http.MethodGet, "/v1/daily-sheets/"+uuid.NewString()+"/pdf", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="fiche-2024-03-14.pdf"`, w.Header().Get("Content-Disposition"))
}

func TestAnnualReport_YearQuery(t *testing.T) {
	svc := &fakeAnnual{}
	r := newEngine()
	r.GET("/v1/reports/annual", withClaims("client"), NewReportsHandler(svc).Annual)

	w := do(r, http.MethodGet, "/v1/reports/annual?year=2023", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2023, svc.year)
	assert.Equal(t, testOrgID.String(), decode(t, w)["organization"])

	w = do(r, http.MethodGet, "/v1/reports/annual?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnnualReport_LoadFailure(t *testing.T) {
	r := newEngine()
	r.GET("/v1/reports/annual", withClaims("client"), NewReportsHandler(&fakeAnnual{err: service.ErrAnnualLoad}).Annual)
	w := do(r, http.MethodGet, "/v1/reports/annual", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Impossible de charger les données annuelles", decode(t, w)["detail"])
}
