package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ravito/internal/activity"
	"ravito/internal/cart"
	"ravito/internal/config"
	"ravito/internal/dto"
	"ravito/internal/infra"
	"ravito/internal/model"
	"ravito/internal/orderflow"
	"ravito/internal/repository"
	"ravito/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// exportPageSize is the number of orders fetched per query during an export.
const exportPageSize = 500

type OrderService interface {
	// Checkout turns the client's cart into a pending order and empties the cart.
	Checkout(ctx context.Context, actor Actor, req dto.CheckoutRequest) (*dto.OrderResponse, error)
	List(ctx context.Context, actor Actor, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.OrderResponse, error)

	SubmitOffer(ctx context.Context, actor Actor, orderID uuid.UUID, req dto.OfferRequest) (*dto.OrderResponse, error)
	AcceptOffer(ctx context.Context, actor Actor, orderID, offerID uuid.UUID) (*dto.OrderResponse, error)
	ConfirmPayment(ctx context.Context, actor Actor, orderID uuid.UUID) (*dto.OrderResponse, error)
	// AdvanceStatus fires one of the delivery events.
	AdvanceStatus(ctx context.Context, actor Actor, orderID uuid.UUID, event orderflow.Event) (*dto.OrderResponse, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, req dto.CancelRequest) (*dto.OrderResponse, error)
	Rate(ctx context.Context, actor Actor, orderID uuid.UUID, req dto.RatingRequest) (*dto.OrderResponse, error)

	ExportCSV(ctx context.Context, actor Actor, filter dto.OrderFilter) ([]byte, error)
}

type orderService struct {
	orders repository.OrderRepository
	zones  repository.ZoneRepository
	carts  repository.CartRepository
	users  repository.UserRepository
	tx     repository.TxRunner
	jobs   Jobs
	rate   decimal.Decimal
	now    func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	zones repository.ZoneRepository,
	carts repository.CartRepository,
	users repository.UserRepository,
	tx repository.TxRunner,
	jobs Jobs,
	cfg *config.Config,
) OrderService {
	return &orderService{
		orders: orders,
		zones:  zones,
		carts:  carts,
		users:  users,
		tx:     tx,
		jobs:   jobs,
		rate:   decimal.NewFromFloat(cfg.CommissionRate),
		now:    time.Now,
	}
}

// ── Checkout & reads ─────────────────────────────────────────────────────────

func (s *orderService) Checkout(ctx context.Context, actor Actor, req dto.CheckoutRequest) (*dto.OrderResponse, error) {
	if !actor.IsClient() {
		return nil, ErrRoleNotAllowed
	}
	zoneID, err := uuid.Parse(req.ZoneID)
	if err != nil {
		return nil, ErrZoneNotFound
	}
	zone, err := s.zones.FindByID(ctx, zoneID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrZoneNotFound
		}
		return nil, err
	}
	if !zone.Active {
		return nil, ErrZoneNotFound
	}

	st, err := s.carts.Load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if st.Empty() {
		return nil, ErrCartEmpty
	}
	totals := cart.ComputeTotals(st)

	order := &model.Order{
		ClientOrgID:     actor.OrgID,
		ZoneID:          zoneID,
		CreatedBy:       actor.UserID,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		Status:          string(orderflow.Pending),
		Subtotal:        totals.Subtotal,
		ConsigneTotal:   totals.ConsigneTotal,
		Commission:      decimal.Zero,
		Total:           totals.Total,
	}
	for _, it := range st.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:     it.ProductID,
			ProductName:   it.Name,
			Quantity:      it.Quantity,
			CratePrice:    it.CratePrice,
			ConsignePrice: it.ConsignePrice,
			WithConsigne:  it.WithConsigne,
		})
	}

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		number, err := s.orders.NextNumber(ctx, tx, s.now().Year())
		if err != nil {
			return fmt.Errorf("order number: %w", err)
		}
		order.Number = number
		return s.orders.Create(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	if err := s.carts.Delete(ctx, actor.UserID); err != nil {
		log.Warn().Err(err).Str("user_id", actor.UserID.String()).Msg("cart not cleared after checkout")
	}
	log.Info().Str("order", order.Number).Str("org_id", actor.OrgID.String()).Msg("order created")

	order.Zone = zone
	resp := toOrderResponse(order, actor)
	return &resp, nil
}

// scope restricts listings to what the actor may see. Suppliers see their own
// orders and the open ones of the zones they are approved in.
func (s *orderService) scope(ctx context.Context, actor Actor) (repository.OrderScope, error) {
	switch {
	case actor.IsAdmin():
		return repository.OrderScope{}, nil
	case actor.IsClient():
		org := actor.OrgID
		return repository.OrderScope{ClientOrgID: &org}, nil
	case actor.IsSupplier():
		org := actor.OrgID
		zones, err := s.zones.ApprovedZoneIDs(ctx, org)
		if err != nil {
			return repository.OrderScope{}, err
		}
		return repository.OrderScope{SupplierOrgID: &org, ZoneIDs: zones}, nil
	}
	return repository.OrderScope{}, ErrRoleNotAllowed
}

func (s *orderService) List(ctx context.Context, actor Actor, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	sc, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	orders, total, err := s.orders.List(ctx, sc, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		data[i] = toOrderResponse(&orders[i], actor)
	}
	return &dto.OrderListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *orderService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(order, actor)
	return &resp, nil
}

// load fetches an order and checks the actor is a party to it.
func (s *orderService) load(ctx context.Context, actor Actor, id uuid.UUID) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	switch {
	case actor.IsAdmin():
		return order, nil
	case actor.IsClient():
		if order.ClientOrgID == actor.OrgID {
			return order, nil
		}
	case actor.IsSupplier():
		if order.SupplierOrgID != nil && *order.SupplierOrgID == actor.OrgID {
			return order, nil
		}
		if order.SupplierOrgID == nil {
			ok, err := s.approvedIn(ctx, actor.OrgID, order.ZoneID)
			if err != nil {
				return nil, err
			}
			if ok {
				return order, nil
			}
		}
	}
	return nil, ErrNotOrderParty
}

func (s *orderService) approvedIn(ctx context.Context, supplierOrgID, zoneID uuid.UUID) (bool, error) {
	ids, err := s.zones.ApprovedZoneIDs(ctx, supplierOrgID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == zoneID {
			return true, nil
		}
	}
	return false, nil
}

// ── Offers ───────────────────────────────────────────────────────────────────

func (s *orderService) SubmitOffer(ctx context.Context, actor Actor, orderID uuid.UUID, req dto.OfferRequest) (*dto.OrderResponse, error) {
	if !actor.IsSupplier() {
		return nil, ErrRoleNotAllowed
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	ok, err := s.approvedIn(ctx, actor.OrgID, order.ZoneID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrZoneNotApproved
	}
	for _, of := range order.Offers {
		if of.SupplierOrgID == actor.OrgID && of.Status == model.OfferPending {
			return nil, ErrOfferExists
		}
	}
	next, err := transition(order, orderflow.OfferSubmitted, actor)
	if err != nil {
		return nil, err
	}

	offer := &model.Offer{
		OrderID:          order.ID,
		SupplierOrgID:    actor.OrgID,
		AmountHT:         req.AmountHT,
		EstimatedMinutes: req.EstimatedMinutes,
		Message:          req.Message,
		Status:           model.OfferPending,
	}
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.orders.CreateOffer(ctx, tx, offer); err != nil {
			return err
		}
		order.Status = string(next)
		return s.orders.Update(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	order.Offers = append(order.Offers, *offer)

	s.notifyOrg(ctx, order.ClientOrgID, "Nouvelle offre sur votre commande "+order.Number,
		fmt.Sprintf("Une offre de %s HT a été reçue pour la commande %s.", activity.FormatCurrency(req.AmountHT), order.Number))

	resp := toOrderResponse(order, actor)
	return &resp, nil
}

func (s *orderService) AcceptOffer(ctx context.Context, actor Actor, orderID, offerID uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	offer, err := s.orders.FindOffer(ctx, offerID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	if offer.OrderID != order.ID || offer.Status != model.OfferPending {
		return nil, ErrOfferNotFound
	}
	next, err := transition(order, orderflow.OfferAccepted, actor)
	if err != nil {
		return nil, err
	}

	amounts := ComputeAmounts(offer.AmountHT, order.ConsigneTotal, s.rate)
	supplier := offer.SupplierOrgID
	order.Status = string(next)
	order.SupplierOrgID = &supplier
	order.AcceptedOfferID = &offer.ID
	order.AmountHT = &amounts.AmountHT
	order.Commission = amounts.Commission
	order.Total = amounts.Total

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.orders.SettleOffers(ctx, tx, order.ID, offer.ID); err != nil {
			return err
		}
		return s.orders.Update(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	for i := range order.Offers {
		if order.Offers[i].ID == offer.ID {
			order.Offers[i].Status = model.OfferAccepted
		} else {
			order.Offers[i].Status = model.OfferRejected
		}
	}

	s.notifyOrg(ctx, supplier, "Offre acceptée: "+order.Number,
		fmt.Sprintf("Votre offre sur la commande %s a été acceptée. Total client: %s.", order.Number, activity.FormatCurrency(order.Total)))

	resp := toOrderResponse(order, actor)
	return &resp, nil
}

// Amounts is the pricing of an accepted offer.
type Amounts struct {
	AmountHT   decimal.Decimal
	Commission decimal.Decimal
	Total      decimal.Decimal
}

// ComputeAmounts applies the platform commission to an offer. The commission
// is rounded to the franc; the consigne is passed through unchanged.
func ComputeAmounts(amountHT, consigne, rate decimal.Decimal) Amounts {
	commission := amountHT.Mul(rate).Round(0)
	return Amounts{
		AmountHT:   amountHT,
		Commission: commission,
		Total:      amountHT.Add(commission).Add(consigne),
	}
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func (s *orderService) ConfirmPayment(ctx context.Context, actor Actor, orderID uuid.UUID) (*dto.OrderResponse, error) {
	return s.fire(ctx, actor, orderID, orderflow.PaymentConfirmed, func(o *model.Order, now time.Time) {
		o.PaidAt = &now
	})
}

func (s *orderService) AdvanceStatus(ctx context.Context, actor Actor, orderID uuid.UUID, event orderflow.Event) (*dto.OrderResponse, error) {
	switch event {
	case orderflow.PreparationStarted, orderflow.DeliveryStarted:
		return s.fire(ctx, actor, orderID, event, nil)
	case orderflow.DeliveryConfirmed:
		return s.fire(ctx, actor, orderID, event, func(o *model.Order, now time.Time) {
			o.DeliveredAt = &now
		})
	}
	return nil, ErrTransition
}

func (s *orderService) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, req dto.CancelRequest) (*dto.OrderResponse, error) {
	if !req.Confirm {
		return nil, ErrConfirmRequired
	}
	return s.fire(ctx, actor, orderID, orderflow.CancelledEvent, func(o *model.Order, now time.Time) {
		o.CancelledAt = &now
		o.CancellationReason = req.Reason
	})
}

func (s *orderService) Rate(ctx context.Context, actor Actor, orderID uuid.UUID, req dto.RatingRequest) (*dto.OrderResponse, error) {
	order, err := s.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == string(orderflow.Delivered) {
		return nil, ErrAlreadyRated
	}
	next, err := transition(order, orderflow.Rated, actor)
	if err != nil {
		return nil, err
	}
	if order.SupplierOrgID == nil {
		return nil, ErrTransition
	}

	rating := &model.Rating{
		OrderID:       order.ID,
		ClientOrgID:   order.ClientOrgID,
		SupplierOrgID: *order.SupplierOrgID,
		Score:         req.Score,
		Comment:       req.Comment,
	}
	order.Status = string(next)
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.orders.CreateRating(ctx, tx, rating); err != nil {
			return err
		}
		return s.orders.Update(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(order, actor)
	return &resp, nil
}

// fire applies a status event with no side data beyond what mutate sets.
func (s *orderService) fire(ctx context.Context, actor Actor, orderID uuid.UUID, event orderflow.Event, mutate func(*model.Order, time.Time)) (*dto.OrderResponse, error) {
	order, err := s.load(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	next, err := transition(order, event, actor)
	if err != nil {
		return nil, err
	}
	order.Status = string(next)
	if mutate != nil {
		mutate(order, s.now())
	}
	if err := s.orders.Update(ctx, nil, order); err != nil {
		return nil, err
	}
	log.Info().Str("order", order.Number).Str("event", string(event)).Str("status", order.Status).Msg("order status changed")
	resp := toOrderResponse(order, actor)
	return &resp, nil
}

func transition(order *model.Order, event orderflow.Event, actor Actor) (orderflow.Status, error) {
	next, err := orderflow.Next(orderflow.Status(order.Status), event, orderflow.Actor(actor.Role))
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, orderflow.ErrActorNotAllowed):
		return "", ErrRoleNotAllowed
	case errors.Is(err, orderflow.ErrInvalidTransition), errors.Is(err, orderflow.ErrUnknownStatus):
		return "", ErrTransition
	}
	return "", err
}

// notifyOrg mails the owner of an organization, if it has one.
func (s *orderService) notifyOrg(ctx context.Context, orgID uuid.UUID, subject, body string) {
	to, err := s.users.FindOwnerEmail(ctx, orgID)
	if err != nil {
		log.Warn().Err(err).Str("org_id", orgID.String()).Msg("owner email lookup failed")
		return
	}
	if to == "" {
		return
	}
	if err := s.jobs.EnqueueEmail(ctx, worker.EmailJobPayload{To: to, Subject: subject, Body: body + "\n\nRAVITO"}); err != nil {
		log.Error().Err(err).Str("org_id", orgID.String()).Msg("could not enqueue order email")
	}
}

// ── Export ───────────────────────────────────────────────────────────────────

func (s *orderService) ExportCSV(ctx context.Context, actor Actor, filter dto.OrderFilter) ([]byte, error) {
	sc, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	var rows []infra.OrderCSVRow
	filter.Limit = exportPageSize
	for filter.Page = 1; ; filter.Page++ {
		orders, total, err := s.orders.List(ctx, sc, filter)
		if err != nil {
			return nil, err
		}
		for i := range orders {
			o := &orders[i]
			amountHT := o.Subtotal
			if o.AmountHT != nil {
				amountHT = *o.AmountHT
			}
			rows = append(rows, infra.OrderCSVRow{
				Date:         o.CreatedAt,
				Number:       o.Number,
				Counterparty: counterparty(o, actor),
				AmountHT:     amountHT,
				Commission:   o.Commission,
				Total:        o.Total,
				Status:       orderflow.Label(orderflow.Status(o.Status)),
			})
		}
		if len(orders) < exportPageSize || int64(len(rows)) >= total {
			break
		}
	}
	return infra.OrdersCSV(rows)
}

// counterparty is the other side of the order from the actor's point of view.
func counterparty(o *model.Order, actor Actor) string {
	if actor.IsClient() {
		if o.SupplierOrg != nil {
			return o.SupplierOrg.Name
		}
		return ""
	}
	if o.ClientOrg != nil {
		return o.ClientOrg.Name
	}
	return ""
}

func toOrderResponse(o *model.Order, actor Actor) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:                 o.ID.String(),
		Number:             o.Number,
		Status:             o.Status,
		StatusLabel:        orderflow.Label(orderflow.Status(o.Status)),
		ClientOrgID:        o.ClientOrgID.String(),
		ZoneID:             o.ZoneID.String(),
		DeliveryAddress:    o.DeliveryAddress,
		Items:              make([]dto.OrderItemResponse, len(o.Items)),
		Offers:             make([]dto.OfferResponse, 0, len(o.Offers)),
		Subtotal:           o.Subtotal,
		ConsigneTotal:      o.ConsigneTotal,
		AmountHT:           o.AmountHT,
		Commission:         o.Commission,
		Total:              o.Total,
		CancellationReason: o.CancellationReason,
		CreatedAt:          ts(o.CreatedAt),
		PaidAt:             tsPtr(o.PaidAt),
		DeliveredAt:        tsPtr(o.DeliveredAt),
	}
	if o.SupplierOrgID != nil {
		id := o.SupplierOrgID.String()
		resp.SupplierOrgID = &id
	}
	if o.ClientOrg != nil {
		resp.ClientName = o.ClientOrg.Name
	}
	if o.SupplierOrg != nil {
		resp.SupplierName = o.SupplierOrg.Name
	}
	for i, it := range o.Items {
		resp.Items[i] = dto.OrderItemResponse{
			ProductID:     it.ProductID.String(),
			ProductName:   it.ProductName,
			Quantity:      it.Quantity,
			CratePrice:    it.CratePrice,
			ConsignePrice: it.ConsignePrice,
			WithConsigne:  it.WithConsigne,
		}
	}
	for _, of := range o.Offers {
		// suppliers only see their own offers
		if actor.IsSupplier() && of.SupplierOrgID != actor.OrgID {
			continue
		}
		resp.Offers = append(resp.Offers, dto.OfferResponse{
			ID:               of.ID.String(),
			SupplierOrgID:    of.SupplierOrgID.String(),
			AmountHT:         of.AmountHT,
			EstimatedMinutes: of.EstimatedMinutes,
			Message:          of.Message,
			Status:           of.Status,
			CreatedAt:        ts(of.CreatedAt),
		})
	}
	events := orderflow.Events(orderflow.Status(o.Status), orderflow.Actor(actor.Role))
	resp.AllowedEvents = make([]string, len(events))
	for i, e := range events {
		resp.AllowedEvents[i] = string(e)
	}
	return resp
}
