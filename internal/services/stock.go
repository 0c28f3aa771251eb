package services

import (
	"context"
	"errors"
	"fmt"

	"petshop/internal/apperr"
	"petshop/internal/repos"
)

// stockLedger applies order-driven stock movements. Selling the last unit
// deactivates the pet; restoring always reactivates it, even when an admin
// had switched it off.
type stockLedger struct {
	inv *repos.InventoryRepo
}

func (l stockLedger) sell(ctx context.Context, petID int64, petName string, qty int) (int, error) {
	left, err := l.inv.AdjustStock(ctx, petID, -qty)
	if errors.Is(err, repos.ErrStockGuard) {
		return 0, apperr.Newf(apperr.CodeInsufficientStock, "Not enough stock left for %s.", petName)
	}
	if err != nil {
		return 0, fmt.Errorf("decrement stock of pet %d: %w", petID, err)
	}
	if left <= 0 {
		if err := l.inv.SetActive(ctx, petID, false); err != nil {
			return 0, fmt.Errorf("deactivate pet %d: %w", petID, err)
		}
	}
	return left, nil
}

func (l stockLedger) restore(ctx context.Context, petID int64, qty int) error {
	if _, err := l.inv.AdjustStock(ctx, petID, qty); err != nil {
		return fmt.Errorf("restore stock of pet %d: %w", petID, err)
	}
	if err := l.inv.SetActive(ctx, petID, true); err != nil {
		return fmt.Errorf("reactivate pet %d: %w", petID, err)
	}
	return nil
}
