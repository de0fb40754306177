// AngelaMos | 2026
// event.go

// Package notify turns marketplace status changes into system messages.
// Services enqueue an Event in the same transaction as the change; the Relay
// later delivers it through the Dispatcher.
package notify

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindProductStatus Kind = "product.status_changed"
	KindReportStatus  Kind = "report.status_changed"
	KindDisputeStatus Kind = "dispute.status_changed"
	KindOrderShipped  Kind = "order.shipped"
	KindOrderStatus   Kind = "order.status_changed"
	KindReviewPosted  Kind = "review.posted"
)

// Event is the payload persisted in the outbox. ActorID is the member or admin
// who caused the change and RecipientID the counterparty to inform.
type Event struct {
	ID               string    `json:"id"`
	Kind             Kind      `json:"kind"`
	ActorID          string    `json:"actor_id"`
	RecipientID      string    `json:"recipient_id"`
	ProductID        *string   `json:"product_id,omitempty"`
	ProductTitle     string    `json:"product_title,omitempty"`
	OrderID          string    `json:"order_id,omitempty"`
	Status           string    `json:"status"`
	TrackingNumber   string    `json:"tracking_number,omitempty"`
	ShippingProvider string    `json:"shipping_provider,omitempty"`
	Resolution       string    `json:"resolution,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func newEvent(kind Kind, actorID, recipientID, status string) Event {
	return Event{
		ID:          uuid.New().String(),
		Kind:        kind,
		ActorID:     actorID,
		RecipientID: recipientID,
		Status:      status,
		OccurredAt:  time.Now().UTC(),
	}
}

func ProductStatusChanged(actorID, sellerID, productID, title, status string) Event {
	e := newEvent(KindProductStatus, actorID, sellerID, status)
	e.ProductID = &productID
	e.ProductTitle = title
	return e
}

func ReportStatusChanged(actorID, reporterID, productID, title, status string) Event {
	e := newEvent(KindReportStatus, actorID, reporterID, status)
	e.ProductID = &productID
	e.ProductTitle = title
	return e
}

// DisputeStatusChanged may carry no product, in which case the message lands
// in the direct conversation between admin and initiator.
func DisputeStatusChanged(actorID, initiatorID, orderID string, productID *string, title, status, resolution string) Event {
	e := newEvent(KindDisputeStatus, actorID, initiatorID, status)
	e.OrderID = orderID
	e.ProductID = productID
	e.ProductTitle = title
	e.Resolution = resolution
	return e
}

func OrderShipped(actorID, buyerID, orderID, productID, title, provider, tracking string) Event {
	e := newEvent(KindOrderShipped, actorID, buyerID, "shipped")
	e.OrderID = orderID
	e.ProductID = &productID
	e.ProductTitle = title
	e.ShippingProvider = provider
	e.TrackingNumber = tracking
	return e
}

func OrderStatusChanged(actorID, recipientID, orderID, productID, title, status string) Event {
	e := newEvent(KindOrderStatus, actorID, recipientID, status)
	e.OrderID = orderID
	e.ProductID = &productID
	e.ProductTitle = title
	return e
}

// ReviewPosted tells a seller about a new rating; Status carries the stars.
func ReviewPosted(buyerID, sellerID, orderID, productID, title string, rating int) Event {
	e := newEvent(KindReviewPosted, buyerID, sellerID, strconv.Itoa(rating))
	e.OrderID = orderID
	e.ProductID = &productID
	e.ProductTitle = title
	return e
}

// Deliverable is false when there is nobody else to tell.
func (e Event) Deliverable() bool {
	return e.RecipientID != "" && e.ActorID != "" && e.RecipientID != e.ActorID
}
