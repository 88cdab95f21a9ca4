// Package reconcile maps supplier tracking to local order state.
//
// The mapping functions are pure. Engine fetches tracking and stores the
// latest snapshot per order without touching order status; Sweeper is the
// caller that decides, per order, whether an observed stage advances it.
package reconcile

import (
	"strings"

	"cj-bridge/internal/model"
)

// Stage is a normalized tracking status derived from carrier free text.
type Stage string

const (
	StageDelivered              Stage = "delivered"
	StageUnsuccessfulDelivery   Stage = "unsuccessful_delivery"
	StageAvailableForPickup     Stage = "available_for_pickup"
	StageOutForDelivery         Stage = "out_for_delivery"
	StageArrivedCourierFacility Stage = "arrived_courier_facility"
	StageEnRoute                Stage = "en_route"
	StageDispatched             Stage = "dispatched"
	StageProcessing             Stage = "processing"
)

// stageRule matches when any phrase is a substring of the lower-cased text
// and no exclusion is.
type stageRule struct {
	stage   Stage
	phrases []string
	exclude []string
}

// failurePhrases keep "not delivered" and similar out of the delivered rule.
var failurePhrases = []string{"not delivered", "undelivered", "unsuccessful", "fail", "attempt", "unable"}

// stageRules is evaluated in order; the first match wins.
var stageRules = []stageRule{
	{stage: StageDelivered, phrases: []string{"delivered"}, exclude: failurePhrases},
	{stage: StageUnsuccessfulDelivery, phrases: []string{"unsuccessful", "failed", "failure", "not delivered", "undelivered", "attempt", "unable to deliver"}},
	{stage: StageAvailableForPickup, phrases: []string{"available for pickup", "pickup", "pick up", "ready for collection"}},
	{stage: StageOutForDelivery, phrases: []string{"out for delivery", "with delivery courier"}},
	{stage: StageArrivedCourierFacility, phrases: []string{"arrived", "courier", "facility", "sorting center"}},
	{stage: StageEnRoute, phrases: []string{"en route", "en-route", "in transit", "transit", "departed"}},
	{stage: StageDispatched, phrases: []string{"dispatched", "shipped", "picked up", "accepted by carrier"}},
	{stage: StageProcessing, phrases: []string{"processing", "created", "pending", "information received", "info received"}},
}

// NormalizeCarrierStatus maps carrier text to a Stage. It returns false when
// no rule matches.
func NormalizeCarrierStatus(text string) (Stage, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return "", false
	}
	for _, rule := range stageRules {
		if containsAny(s, rule.exclude) {
			continue
		}
		if containsAny(s, rule.phrases) {
			return rule.stage, true
		}
	}
	return "", false
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// StageToLocalStatus collapses a stage to the local order status it implies.
// Unknown stages imply no status.
func StageToLocalStatus(stage Stage) (model.OrderStatus, bool) {
	switch stage {
	case StageDelivered:
		return model.OrderDelivered, true
	case StageDispatched, StageEnRoute, StageArrivedCourierFacility,
		StageOutForDelivery, StageAvailableForPickup, StageUnsuccessfulDelivery:
		return model.OrderShipped, true
	case StageProcessing:
		return model.OrderProcessing, true
	default:
		return "", false
	}
}

// IsForwardTransition reports whether next strictly follows current on
// pending < processing < shipped < delivered. Terminal and unknown statuses
// never transition; equal statuses are a no-op.
func IsForwardTransition(current, next model.OrderStatus) bool {
	if current.IsTerminal() {
		return false
	}
	from, ok := current.Rank()
	if !ok {
		return false
	}
	to, ok := next.Rank()
	if !ok {
		return false
	}
	return to > from
}
