package models

import "fmt"

// SalesStatus - draft → approved → shipped → delivered → completed
type SalesStatus string

const (
	SalesDraft     SalesStatus = "draft"
	SalesApproved  SalesStatus = "approved"
	SalesShipped   SalesStatus = "shipped"
	SalesDelivered SalesStatus = "delivered"
	SalesCompleted SalesStatus = "completed"
)

// SalesStatuses in lifecycle order.
var SalesStatuses = []SalesStatus{SalesDraft, SalesApproved, SalesShipped, SalesDelivered, SalesCompleted}

func ParseSalesStatus(s string) (SalesStatus, error) {
	st := SalesStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown sales order status %q", s)
	}
	return st, nil
}

func (s SalesStatus) Valid() bool {
	return s.Rank() >= 0
}

// Rank is the position in the lifecycle, -1 for an unknown value.
func (s SalesStatus) Rank() int {
	switch s {
	case SalesDraft:
		return 0
	case SalesApproved:
		return 1
	case SalesShipped:
		return 2
	case SalesDelivered:
		return 3
	case SalesCompleted:
		return 4
	}
	return -1
}

// Next returns the following status; ok is false on completed or an unknown value.
func (s SalesStatus) Next() (SalesStatus, bool) {
	switch s {
	case SalesDraft:
		return SalesApproved, true
	case SalesApproved:
		return SalesShipped, true
	case SalesShipped:
		return SalesDelivered, true
	case SalesDelivered:
		return SalesCompleted, true
	case SalesCompleted:
		return "", false
	}
	return "", false
}

// Pending orders still wait for approval or shipping.
func (s SalesStatus) Pending() bool {
	return s == SalesDraft || s == SalesApproved
}

// PurchaseStatus - draft → ordered → received → completed
type PurchaseStatus string

const (
	PurchaseDraft     PurchaseStatus = "draft"
	PurchaseOrdered   PurchaseStatus = "ordered"
	PurchaseReceived  PurchaseStatus = "received"
	PurchaseCompleted PurchaseStatus = "completed"
)

var PurchaseStatuses = []PurchaseStatus{PurchaseDraft, PurchaseOrdered, PurchaseReceived, PurchaseCompleted}

func ParsePurchaseStatus(s string) (PurchaseStatus, error) {
	st := PurchaseStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown purchase order status %q", s)
	}
	return st, nil
}

func (s PurchaseStatus) Valid() bool {
	return s.Rank() >= 0
}

func (s PurchaseStatus) Rank() int {
	switch s {
	case PurchaseDraft:
		return 0
	case PurchaseOrdered:
		return 1
	case PurchaseReceived:
		return 2
	case PurchaseCompleted:
		return 3
	}
	return -1
}

func (s PurchaseStatus) Next() (PurchaseStatus, bool) {
	switch s {
	case PurchaseDraft:
		return PurchaseOrdered, true
	case PurchaseOrdered:
		return PurchaseReceived, true
	case PurchaseReceived:
		return PurchaseCompleted, true
	case PurchaseCompleted:
		return "", false
	}
	return "", false
}

func (s PurchaseStatus) Pending() bool {
	return s == PurchaseDraft || s == PurchaseOrdered
}
