package workflows

import (
	"context"
	"fmt"
	"log"

	"github.com/prabeshj/tokri/internal/core/ports"
)

// DispatchActivities holds the activity implementations for the dispatch workflow.
type DispatchActivities struct {
	Couriers  ports.CourierRepository
	Notifier  ports.CourierNotifier
	Publisher ports.EventPublisher
}

// FindNearestCourier returns the ID of the nearest available courier.
func (a *DispatchActivities) FindNearestCourier(ctx context.Context, lat, lon float64) (string, error) {
	couriers, err := a.Couriers.FindNearestAvailable(ctx, lat, lon, 5)
	if err != nil {
		return "", fmt.Errorf("find nearest couriers: %w", err)
	}
	if len(couriers) == 0 {
		return "", fmt.Errorf("no couriers available near %.4f, %.4f", lat, lon)
	}
	return couriers[0].ID, nil
}

// ReserveCourier marks a courier as taken for the duration of a delivery.
func (a *DispatchActivities) ReserveCourier(ctx context.Context, courierID string) error {
	if err := a.Couriers.SetAvailability(ctx, courierID, false); err != nil {
		return fmt.Errorf("reserve courier %s: %w", courierID, err)
	}
	return nil
}

// ReleaseCourier returns a courier to the available pool (saga compensation / rollback).
func (a *DispatchActivities) ReleaseCourier(ctx context.Context, courierID string) error {
	if err := a.Couriers.SetAvailability(ctx, courierID, true); err != nil {
		return fmt.Errorf("release courier %s: %w", courierID, err)
	}
	log.Printf("Courier %s released (saga compensation)", courierID)
	return nil
}

// NotifyCourier alerts the courier about the assignment.
func (a *DispatchActivities) NotifyCourier(ctx context.Context, courierID, orderID string) error {
	if a.Notifier == nil {
		log.Printf("NOTIFY (no notifier) → courier=%s order=%s", courierID, orderID)
		return nil
	}
	return a.Notifier.NotifyAssignment(ctx, courierID, orderID)
}

// AnnounceDispatch publishes the assignment so trackers can pick it up.
func (a *DispatchActivities) AnnounceDispatch(ctx context.Context, orderID, courierID string) error {
	if a.Publisher == nil {
		return nil
	}
	return a.Publisher.PublishDispatch(ctx, orderID, courierID)
}
