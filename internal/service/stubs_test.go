package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ravito/internal/cart"
	"ravito/internal/config"
	"ravito/internal/dto"
	"ravito/internal/infra"
	"ravito/internal/model"
	"ravito/internal/orderflow"
	"ravito/internal/repository"
	"ravito/internal/worker"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory repositories ────────────────────────────────────────────────────

type stubTx struct{}

func (stubTx) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type memUsers struct {
	byID map[uuid.UUID]*model.User
	orgs *memOrgs
}

var _ repository.UserRepository = (*memUsers)(nil)

func newMemUsers(orgs *memOrgs) *memUsers {
	return &memUsers{byID: make(map[uuid.UUID]*model.User), orgs: orgs}
}

func (r *memUsers) Create(_ context.Context, _ *gorm.DB, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	r.byID[u.ID] = u
	return nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *memUsers) List(_ context.Context, status string) ([]model.User, error) {
	out := make([]model.User, 0)
	for _, u := range r.byID {
		if status == "" || u.Status == status {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUsers) UpdateStatus(_ context.Context, id uuid.UUID, status string, reason *string) error {
	u, ok := r.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = status
	u.RejectionReason = reason
	return nil
}

func (r *memUsers) FindOwnerEmail(_ context.Context, orgID uuid.UUID) (string, error) {
	if r.orgs == nil {
		return "", nil
	}
	org, ok := r.orgs.byID[orgID]
	if !ok || org.OwnerID == nil {
		return "", nil
	}
	if u, ok := r.byID[*org.OwnerID]; ok {
		return u.Email, nil
	}
	return "", nil
}

type memOrgs struct {
	byID map[uuid.UUID]*model.Organization
}

var _ repository.OrganizationRepository = (*memOrgs)(nil)

func newMemOrgs() *memOrgs { return &memOrgs{byID: make(map[uuid.UUID]*model.Organization)} }

func (r *memOrgs) add(name, typ string) *model.Organization {
	o := &model.Organization{ID: uuid.New(), Name: name, Type: typ}
	r.byID[o.ID] = o
	return o
}

func (r *memOrgs) Create(_ context.Context, _ *gorm.DB, o *model.Organization) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.byID[o.ID] = o
	return nil
}

func (r *memOrgs) SetOwner(_ context.Context, _ *gorm.DB, orgID, userID uuid.UUID) error {
	o, ok := r.byID[orgID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.OwnerID = &userID
	return nil
}

func (r *memOrgs) FindByID(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	o, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

type memReps struct {
	reps []model.SalesRepresentative
}

var _ repository.SalesRepRepository = (*memReps)(nil)

func (r *memReps) ListActive(context.Context) ([]model.SalesRepresentative, error) {
	out := make([]model.SalesRepresentative, 0)
	for _, rep := range r.reps {
		if rep.Active {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *memReps) FindByID(_ context.Context, id uuid.UUID) (*model.SalesRepresentative, error) {
	for i := range r.reps {
		if r.reps[i].ID == id {
			return &r.reps[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memReps) Create(_ context.Context, rep *model.SalesRepresentative) error {
	rep.ID = uuid.New()
	r.reps = append(r.reps, *rep)
	return nil
}

type memZones struct {
	zones      map[uuid.UUID]*model.Zone
	links      map[uuid.UUID]*model.SupplierZone
	openOrders map[uuid.UUID]int64
}

var _ repository.ZoneRepository = (*memZones)(nil)

func newMemZones() *memZones {
	return &memZones{
		zones:      make(map[uuid.UUID]*model.Zone),
		links:      make(map[uuid.UUID]*model.SupplierZone),
		openOrders: make(map[uuid.UUID]int64),
	}
}

func (r *memZones) add(name string) *model.Zone {
	z := &model.Zone{ID: uuid.New(), Name: name, Active: true}
	r.zones[z.ID] = z
	return z
}

func (r *memZones) approve(supplierOrgID, zoneID uuid.UUID) {
	sz := &model.SupplierZone{ID: uuid.New(), SupplierOrgID: supplierOrgID, ZoneID: zoneID, Status: model.SupplierZoneApproved}
	r.links[sz.ID] = sz
}

func (r *memZones) List(_ context.Context, activeOnly bool) ([]model.Zone, error) {
	out := make([]model.Zone, 0)
	for _, z := range r.zones {
		if !activeOnly || z.Active {
			out = append(out, *z)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memZones) FindByID(_ context.Context, id uuid.UUID) (*model.Zone, error) {
	z, ok := r.zones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return z, nil
}

func (r *memZones) Create(_ context.Context, z *model.Zone) error {
	z.ID = uuid.New()
	r.zones[z.ID] = z
	return nil
}

func (r *memZones) Update(_ context.Context, z *model.Zone) error {
	r.zones[z.ID] = z
	return nil
}

func (r *memZones) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.zones[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.zones, id)
	return nil
}

func (r *memZones) CountOpenOrders(_ context.Context, zoneID uuid.UUID) (int64, error) {
	return r.openOrders[zoneID], nil
}

func (r *memZones) CreateSupplierZone(_ context.Context, _ *gorm.DB, sz *model.SupplierZone) error {
	sz.ID = uuid.New()
	r.links[sz.ID] = sz
	return nil
}

func (r *memZones) FindSupplierZone(_ context.Context, id uuid.UUID) (*model.SupplierZone, error) {
	sz, ok := r.links[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sz, nil
}

func (r *memZones) FindSupplierZoneByPair(_ context.Context, supplierOrgID, zoneID uuid.UUID) (*model.SupplierZone, error) {
	for _, sz := range r.links {
		if sz.SupplierOrgID == supplierOrgID && sz.ZoneID == zoneID {
			return sz, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memZones) ListSupplierZones(_ context.Context, supplierOrgID uuid.UUID) ([]model.SupplierZone, error) {
	out := make([]model.SupplierZone, 0)
	for _, sz := range r.links {
		if sz.SupplierOrgID == supplierOrgID {
			out = append(out, *sz)
		}
	}
	return out, nil
}

func (r *memZones) ListSupplierZoneRequests(_ context.Context, status string) ([]model.SupplierZone, error) {
	out := make([]model.SupplierZone, 0)
	for _, sz := range r.links {
		if status == "" || sz.Status == status {
			out = append(out, *sz)
		}
	}
	return out, nil
}

func (r *memZones) UpdateSupplierZone(_ context.Context, sz *model.SupplierZone) error {
	r.links[sz.ID] = sz
	return nil
}

func (r *memZones) ApprovedZoneIDs(_ context.Context, supplierOrgID uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0)
	for _, sz := range r.links {
		if sz.SupplierOrgID == supplierOrgID && sz.Status == model.SupplierZoneApproved {
			out = append(out, sz.ZoneID)
		}
	}
	return out, nil
}

type memCarts struct {
	states  map[uuid.UUID]cart.State
	deleted []uuid.UUID
}

var _ repository.CartRepository = (*memCarts)(nil)

func newMemCarts() *memCarts { return &memCarts{states: make(map[uuid.UUID]cart.State)} }

func (r *memCarts) Load(_ context.Context, userID uuid.UUID) (cart.State, error) {
	s, ok := r.states[userID]
	if !ok {
		return cart.State{Items: []cart.Item{}}, nil
	}
	return s, nil
}

func (r *memCarts) Save(_ context.Context, userID uuid.UUID, s cart.State) error {
	r.states[userID] = s
	return nil
}

func (r *memCarts) Delete(_ context.Context, userID uuid.UUID) error {
	delete(r.states, userID)
	r.deleted = append(r.deleted, userID)
	return nil
}

type memProducts struct {
	products map[uuid.UUID]*model.Product
	prices   []model.OrganizationProduct
	listed   int
}

var _ repository.ProductRepository = (*memProducts)(nil)

func newMemProducts() *memProducts { return &memProducts{products: make(map[uuid.UUID]*model.Product)} }

func (r *memProducts) add(p model.Product) *model.Product {
	p.ID = uuid.New()
	p.Active = true
	r.products[p.ID] = &p
	return &p
}

func (r *memProducts) ListActive(context.Context) ([]model.Product, error) {
	r.listed++
	out := make([]model.Product, 0)
	for _, p := range r.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memProducts) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProducts) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	r.products[p.ID] = p
	return nil
}

func (r *memProducts) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memProducts) UpsertOrganizationPrice(_ context.Context, op *model.OrganizationProduct) error {
	for i := range r.prices {
		if r.prices[i].OrganizationID == op.OrganizationID && r.prices[i].ProductID == op.ProductID {
			r.prices[i].SellingPrice = op.SellingPrice
			return nil
		}
	}
	op.ID = uuid.New()
	op.Product = r.products[op.ProductID]
	r.prices = append(r.prices, *op)
	return nil
}

func (r *memProducts) ListOrganizationProducts(_ context.Context, orgID uuid.UUID) ([]model.OrganizationProduct, error) {
	out := make([]model.OrganizationProduct, 0)
	for _, op := range r.prices {
		if op.OrganizationID == orgID {
			op.Product = r.products[op.ProductID]
			out = append(out, op)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product.Name < out[j].Product.Name })
	return out, nil
}

type memOrders struct {
	orders  map[uuid.UUID]*model.Order
	offers  map[uuid.UUID]*model.Offer
	ratings []model.Rating
	seq     int64
	scopes  []repository.OrderScope
}

var _ repository.OrderRepository = (*memOrders)(nil)

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[uuid.UUID]*model.Order), offers: make(map[uuid.UUID]*model.Offer)}
}

func (r *memOrders) Create(_ context.Context, _ *gorm.DB, o *model.Order) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *memOrders) NextNumber(_ context.Context, _ *gorm.DB, year int) (string, error) {
	r.seq++
	return repository.FormatOrderNumber(year, r.seq), nil
}

func (r *memOrders) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	cp.Offers = nil
	for _, of := range r.offers {
		if of.OrderID == id {
			cp.Offers = append(cp.Offers, *of)
		}
	}
	sort.Slice(cp.Offers, func(i, j int) bool { return cp.Offers[i].CreatedAt.Before(cp.Offers[j].CreatedAt) })
	return &cp, nil
}

func (r *memOrders) Update(_ context.Context, _ *gorm.DB, o *model.Order) error {
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *memOrders) List(_ context.Context, scope repository.OrderScope, filter dto.OrderFilter) ([]model.Order, int64, error) {
	r.scopes = append(r.scopes, scope)
	out := make([]model.Order, 0)
	for _, o := range r.orders {
		if scope.ClientOrgID != nil && o.ClientOrgID != *scope.ClientOrgID {
			continue
		}
		if scope.SupplierOrgID != nil {
			own := o.SupplierOrgID != nil && *o.SupplierOrgID == *scope.SupplierOrgID
			open := false
			for _, z := range scope.ZoneIDs {
				if z == o.ZoneID && (o.Status == string(orderflow.Pending) || o.Status == string(orderflow.OffersReceived)) {
					open = true
				}
			}
			if !own && !open {
				continue
			}
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	total := int64(len(out))
	if filter.Limit > 0 && filter.Page > 0 {
		from := min((filter.Page-1)*filter.Limit, len(out))
		out = out[from:min(from+filter.Limit, len(out))]
	}
	return out, total, nil
}

func (r *memOrders) CreateOffer(_ context.Context, _ *gorm.DB, of *model.Offer) error {
	of.ID = uuid.New()
	of.CreatedAt = time.Now().Add(time.Duration(len(r.offers)) * time.Millisecond)
	cp := *of
	r.offers[of.ID] = &cp
	return nil
}

func (r *memOrders) FindOffer(_ context.Context, id uuid.UUID) (*model.Offer, error) {
	of, ok := r.offers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *of
	return &cp, nil
}

func (r *memOrders) SettleOffers(_ context.Context, _ *gorm.DB, orderID, acceptedID uuid.UUID) error {
	for _, of := range r.offers {
		if of.OrderID != orderID {
			continue
		}
		if of.ID == acceptedID {
			of.Status = model.OfferAccepted
		} else {
			of.Status = model.OfferRejected
		}
	}
	return nil
}

func (r *memOrders) CreateRating(_ context.Context, _ *gorm.DB, rt *model.Rating) error {
	rt.ID = uuid.New()
	r.ratings = append(r.ratings, *rt)
	return nil
}

// memSheets stores whole sheets; child rows are looked up inside them.
type memSheets struct {
	sheets map[uuid.UUID]*model.DailySheet
	// lostRace makes CloseIfOpen report another closer
	lostRace bool
	failList error
	// beforeWrite runs once at the start of the next entry or credit write
	beforeWrite func()
	// beforeCreate runs once before the next Create, after the service's lookup
	beforeCreate func()
}

var _ repository.DailySheetRepository = (*memSheets)(nil)

func newMemSheets() *memSheets { return &memSheets{sheets: make(map[uuid.UUID]*model.DailySheet)} }

func (r *memSheets) put(s *model.DailySheet) *model.DailySheet {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = model.SheetOpen
	}
	for i := range s.StockLines {
		if s.StockLines[i].ID == uuid.Nil {
			s.StockLines[i].ID = uuid.New()
		}
		s.StockLines[i].SheetID = s.ID
	}
	for i := range s.Packaging {
		if s.Packaging[i].ID == uuid.Nil {
			s.Packaging[i].ID = uuid.New()
		}
		s.Packaging[i].SheetID = s.ID
	}
	for i := range s.Expenses {
		if s.Expenses[i].ID == uuid.Nil {
			s.Expenses[i].ID = uuid.New()
		}
		s.Expenses[i].SheetID = s.ID
	}
	r.sheets[s.ID] = s
	return s
}

func cloneSheet(s *model.DailySheet) *model.DailySheet {
	cp := *s
	cp.StockLines = append([]model.DailyStockLine(nil), s.StockLines...)
	cp.Expenses = append([]model.DailyExpense(nil), s.Expenses...)
	cp.Packaging = append([]model.DailyPackaging(nil), s.Packaging...)
	return &cp
}

func sameDay(a, b time.Time) bool { return a.Format(dateLayout) == b.Format(dateLayout) }

func (r *memSheets) Create(_ context.Context, _ *gorm.DB, s *model.DailySheet) error {
	if hook := r.beforeCreate; hook != nil {
		r.beforeCreate = nil
		hook()
	}
	// idx_sheet_org_date
	for _, cur := range r.sheets {
		if cur.OrganizationID == s.OrganizationID && sameDay(cur.SheetDate, s.SheetDate) {
			return fmt.Errorf("insert daily_sheets: %w", gorm.ErrDuplicatedKey)
		}
	}
	r.put(s)
	r.sheets[s.ID] = cloneSheet(s)
	return nil
}

func (r *memSheets) FindByID(_ context.Context, id uuid.UUID) (*model.DailySheet, error) {
	s, ok := r.sheets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneSheet(s), nil
}

func (r *memSheets) FindByDate(_ context.Context, orgID uuid.UUID, date time.Time) (*model.DailySheet, error) {
	for _, s := range r.sheets {
		if s.OrganizationID == orgID && sameDay(s.SheetDate, date) {
			return cloneSheet(s), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memSheets) FindPreviousClosed(_ context.Context, orgID uuid.UUID, before time.Time) (*model.DailySheet, error) {
	var best *model.DailySheet
	for _, s := range r.sheets {
		if s.OrganizationID != orgID || s.Status != model.SheetClosed || !s.SheetDate.Before(truncateDay(before)) {
			continue
		}
		if best == nil || s.SheetDate.After(best.SheetDate) {
			best = s
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneSheet(best), nil
}

func (r *memSheets) ListRange(_ context.Context, orgID uuid.UUID, from, to time.Time, status string) ([]model.DailySheet, error) {
	out := make([]model.DailySheet, 0)
	for _, s := range r.sheets {
		if s.OrganizationID != orgID || s.SheetDate.Before(from) || !s.SheetDate.Before(to) {
			continue
		}
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, *cloneSheet(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SheetDate.Before(out[j].SheetDate) })
	return out, nil
}

func (r *memSheets) ListClosedWithLines(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]model.DailySheet, error) {
	if r.failList != nil {
		return nil, r.failList
	}
	return r.ListRange(ctx, orgID, from, to, model.SheetClosed)
}

// writable fires beforeWrite and returns the stored sheet while it is open.
func (r *memSheets) writable(sheetID uuid.UUID) (*model.DailySheet, error) {
	if hook := r.beforeWrite; hook != nil {
		r.beforeWrite = nil
		hook()
	}
	s, ok := r.sheets[sheetID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if s.Status != model.SheetOpen {
		return nil, repository.ErrSheetNotOpen
	}
	return s, nil
}

func (r *memSheets) UpdateCredit(_ context.Context, s *model.DailySheet) (bool, error) {
	cur, err := r.writable(s.ID)
	if errors.Is(err, repository.ErrSheetNotOpen) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	cur.CreditSales, cur.CreditPayments, cur.CreditBalance = s.CreditSales, s.CreditPayments, s.CreditBalance
	return true, nil
}

func (r *memSheets) CloseIfOpen(_ context.Context, s *model.DailySheet) (bool, error) {
	cur, ok := r.sheets[s.ID]
	if !ok || r.lostRace || cur.Status != model.SheetOpen {
		return false, nil
	}
	cp := cloneSheet(s)
	cp.StockLines, cp.Expenses, cp.Packaging = cur.StockLines, cur.Expenses, cur.Packaging
	r.sheets[s.ID] = cp
	return true, nil
}

func (r *memSheets) FindStockLine(_ context.Context, sheetID, lineID uuid.UUID) (*model.DailyStockLine, error) {
	if s, ok := r.sheets[sheetID]; ok {
		for _, l := range s.StockLines {
			if l.ID == lineID {
				return &l, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memSheets) UpdateStockLine(_ context.Context, l *model.DailyStockLine) error {
	s, err := r.writable(l.SheetID)
	if err != nil {
		return err
	}
	for i := range s.StockLines {
		if s.StockLines[i].ID == l.ID {
			s.StockLines[i] = *l
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memSheets) CreateExpense(_ context.Context, e *model.DailyExpense) error {
	s, err := r.writable(e.SheetID)
	if err != nil {
		return err
	}
	e.ID = uuid.New()
	s.Expenses = append(s.Expenses, *e)
	return nil
}

func (r *memSheets) DeleteExpense(_ context.Context, sheetID, expenseID uuid.UUID) error {
	s, err := r.writable(sheetID)
	if err != nil {
		return err
	}
	for i, e := range s.Expenses {
		if e.ID == expenseID {
			s.Expenses = append(s.Expenses[:i], s.Expenses[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memSheets) FindPackaging(_ context.Context, sheetID, packagingID uuid.UUID) (*model.DailyPackaging, error) {
	if s, ok := r.sheets[sheetID]; ok {
		for _, p := range s.Packaging {
			if p.ID == packagingID {
				return &p, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memSheets) UpdatePackaging(_ context.Context, p *model.DailyPackaging) error {
	s, err := r.writable(p.SheetID)
	if err != nil {
		return err
	}
	for i := range s.Packaging {
		if s.Packaging[i].ID == p.ID {
			s.Packaging[i] = *p
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memSheets) ListPendingReports(context.Context, time.Time, int, int) ([]model.DailySheet, error) {
	return nil, nil
}

func (r *memSheets) RecordReport(_ context.Context, sheetID uuid.UUID, path string) error {
	r.sheets[sheetID].ReportPath = &path
	return nil
}

func (r *memSheets) DeferReport(context.Context, uuid.UUID, time.Time) error { return nil }

func (r *memSheets) RecordReportFailure(context.Context, uuid.UUID, string, time.Time) error {
	return nil
}

// ── Infrastructure stubs ──────────────────────────────────────────────────────

type recordingJobs struct {
	emails  []worker.EmailJobPayload
	reports []worker.ClosureReportPayload
}

func (j *recordingJobs) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	j.emails = append(j.emails, p)
	return nil
}

func (j *recordingJobs) EnqueueClosureReport(_ context.Context, p worker.ClosureReportPayload) error {
	j.reports = append(j.reports, p)
	return nil
}

type memCache struct {
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := c.data[key]
	if !ok {
		return nil, infra.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.sets++
	c.data[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// stubLocker refuses a key already held, like the Redis locker.
type stubLocker struct {
	busy     bool
	held     map[string]bool
	keys     []string
	released int
}

func (l *stubLocker) Obtain(_ context.Context, key string, _ time.Duration) (func(), error) {
	if l.busy || l.held[key] {
		return nil, infra.ErrLockBusy
	}
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	l.held[key] = true
	l.keys = append(l.keys, key)
	return func() {
		delete(l.held, key)
		l.released++
	}, nil
}

type memObjects struct {
	data map[string][]byte
}

func (o *memObjects) Get(_ context.Context, name string) ([]byte, error) {
	if v, ok := o.data[name]; ok {
		return v, nil
	}
	return nil, infra.ErrObjectNotFound
}

var errBoom = errors.New("boom")

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test_jwt_secret_32_chars_minimum!",
		JWTExpirationHours:     8,
		JWTRefreshHours:        72,
		CommissionRate:         0.08,
		LowStockThreshold:      5,
		CartTTLHours:           48,
		CatalogCacheTTLMinutes: 30,
		CloseLockTTLSeconds:    15,
		EstablishmentFallback:  "Établissement",
	}
}

func intp(v int) *int { return &v }
