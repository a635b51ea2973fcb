// Package orderflow is the order lifecycle: one transition table, the actors
// allowed to fire each event, and the French status labels shown to users.
package orderflow

import (
	"errors"
	"fmt"
)

type Status string

const (
	Pending         Status = "pending"
	OffersReceived  Status = "offers-received"
	AwaitingPayment Status = "awaiting-payment"
	Paid            Status = "paid"
	Preparing       Status = "preparing"
	Delivering      Status = "delivering"
	AwaitingRating  Status = "awaiting-rating"
	Delivered       Status = "delivered"
	Cancelled       Status = "cancelled"
)

type Event string

const (
	OfferSubmitted     Event = "offer_submitted"
	OfferAccepted      Event = "offer_accepted"
	PaymentConfirmed   Event = "payment_confirmed"
	PreparationStarted Event = "preparation_started"
	DeliveryStarted    Event = "delivery_started"
	DeliveryConfirmed  Event = "delivery_confirmed"
	Rated              Event = "rated"
	CancelledEvent     Event = "cancelled"
)

// Actor is the role firing an event. Values match the user roles.
type Actor string

const (
	Admin    Actor = "admin"
	Client   Actor = "client"
	Supplier Actor = "supplier"
)

var (
	ErrInvalidTransition = errors.New("transition de statut non autorisée")
	ErrActorNotAllowed   = errors.New("action non autorisée pour ce rôle")
	ErrUnknownStatus     = errors.New("statut de commande inconnu")
)

type transition struct {
	to     Status
	actors []Actor
}

type edge struct {
	from  Status
	event Event
}

var table = map[edge]transition{
	{Pending, OfferSubmitted}:           {OffersReceived, []Actor{Supplier}},
	{OffersReceived, OfferSubmitted}:    {OffersReceived, []Actor{Supplier}},
	{OffersReceived, OfferAccepted}:     {AwaitingPayment, []Actor{Client}},
	{AwaitingPayment, PaymentConfirmed}: {Paid, []Actor{Client}},
	{Paid, PreparationStarted}:          {Preparing, []Actor{Supplier}},
	{Preparing, DeliveryStarted}:        {Delivering, []Actor{Supplier}},
	{Delivering, DeliveryConfirmed}:     {AwaitingRating, []Actor{Supplier, Client}},
	{AwaitingRating, Rated}:             {Delivered, []Actor{Client}},
	{Pending, CancelledEvent}:           {Cancelled, []Actor{Client, Admin}},
	{OffersReceived, CancelledEvent}:    {Cancelled, []Actor{Client, Admin}},
	{AwaitingPayment, CancelledEvent}:   {Cancelled, []Actor{Client, Admin}},
}

var labels = map[Status]string{
	Pending:         "En attente d'offres",
	OffersReceived:  "Offres reçues",
	AwaitingPayment: "En attente de paiement",
	Paid:            "Payée",
	Preparing:       "En préparation",
	Delivering:      "En livraison",
	AwaitingRating:  "En attente d'évaluation",
	Delivered:       "Livrée",
	Cancelled:       "Annulée",
}

// Next returns the status reached when actor fires event from the given
// status. It fails with ErrInvalidTransition when the table has no such edge
// and ErrActorNotAllowed when the edge exists for other roles.
func Next(from Status, event Event, actor Actor) (Status, error) {
	if _, ok := labels[from]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownStatus, from)
	}
	tr, ok := table[edge{from, event}]
	if !ok {
		return "", fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, event)
	}
	for _, a := range tr.actors {
		if a == actor {
			return tr.to, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrActorNotAllowed, actor)
}

// Can reports whether Next would succeed.
func Can(from Status, event Event, actor Actor) bool {
	_, err := Next(from, event, actor)
	return err == nil
}

func IsTerminal(s Status) bool {
	return s == Delivered || s == Cancelled
}

// Cancellable reports whether the order can still be cancelled.
func Cancellable(s Status) bool {
	_, ok := table[edge{s, CancelledEvent}]
	return ok
}

// Label returns the French label of a status; unknown values are echoed.
func Label(s Status) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Events lists the events the actor may fire from s, in lifecycle order.
func Events(s Status, actor Actor) []Event {
	order := []Event{OfferSubmitted, OfferAccepted, PaymentConfirmed, PreparationStarted,
		DeliveryStarted, DeliveryConfirmed, Rated, CancelledEvent}
	out := make([]Event, 0, 2)
	for _, e := range order {
		if Can(s, e, actor) {
			out = append(out, e)
		}
	}
	return out
}

// Valid reports whether s is a known status.
func Valid(s Status) bool {
	_, ok := labels[s]
	return ok
}
