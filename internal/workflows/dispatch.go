package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// DispatchInput is the input for the dispatch workflow.
type DispatchInput struct {
	OrderID   string
	PickupLat float64
	PickupLon float64
}

// DispatchWorkflow orchestrates assigning a courier to an order: find the
// nearest available courier, reserve them, and notify them. If the
// notification fails, the reservation is released (saga compensation).
func DispatchWorkflow(ctx workflow.Context, input DispatchInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting dispatch workflow", "orderID", input.OrderID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Find nearest available courier
	var courierID string
	err := workflow.ExecuteActivity(ctx, "FindNearestCourier", input.PickupLat, input.PickupLon).Get(ctx, &courierID)
	if err != nil {
		return err
	}

	// Step 2: Reserve the courier
	err = workflow.ExecuteActivity(ctx, "ReserveCourier", courierID).Get(ctx, nil)
	if err != nil {
		return err
	}

	// Step 3: Notify the courier about the assignment
	err = workflow.ExecuteActivity(ctx, "NotifyCourier", courierID, input.OrderID).Get(ctx, nil)
	if err != nil {
		logger.Warn("courier notification failed, compensating", "error", err)
		// Compensate: release the reservation
		_ = workflow.ExecuteActivity(ctx, "ReleaseCourier", courierID).Get(ctx, nil)
		return err
	}

	// Step 4: Announce the assignment
	_ = workflow.ExecuteActivity(ctx, "AnnounceDispatch", input.OrderID, courierID).Get(ctx, nil)

	logger.Info("Courier dispatched", "orderID", input.OrderID, "courierID", courierID)
	return nil
}
