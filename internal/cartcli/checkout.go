package cartcli

import (
	"context"
	"errors"
	"fmt"

	"github.com/vallamarket/cartsync/internal/common"
)

func (a *App) remove(ctx context.Context, itemID string) {
	if err := a.engine.RemoveFromCart(ctx, itemID); err != nil {
		if errors.Is(err, common.ErrNotPermitted) {
			fmt.Println("Only advertisers can modify the cart; log in first.")
			return
		}
		fmt.Println("Error removing item:", err)
		return
	}
	fmt.Println("Removed.")
}

// dates moves the whole cart to a new range and revalidates every item
// against it.
func (a *App) dates(ctx context.Context, startStr, endStr string) {
	r, err := parseRange(startStr, endStr)
	if err != nil {
		fmt.Println("Invalid dates:", err)
		return
	}

	if err := a.engine.RevalidateCart(ctx, r); err != nil {
		if errors.Is(err, common.ErrNotPermitted) {
			fmt.Println("Only advertisers can modify the cart; log in first.")
			return
		}
		fmt.Println("Error revalidating cart:", err)
		return
	}

	a.show(ctx)
}

func (a *App) clear(ctx context.Context) {
	if err := a.engine.ClearCart(ctx); err != nil {
		if errors.Is(err, common.ErrNotPermitted) {
			fmt.Println("Only advertisers can modify the cart; log in first.")
			return
		}
		fmt.Println("Error clearing cart:", err)
		return
	}
	fmt.Println("Cart cleared.")
}

// checkout runs the final availability pass and hands surviving items to
// the booking wizard.
func (a *App) checkout(ctx context.Context) {

	res, err := a.engine.TransferToCheckout(ctx)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotPermitted):
			fmt.Println("Only advertisers can check out; log in first.")
		case errors.Is(err, common.ErrNoValidItems):
			fmt.Println("No valid items to check out.")
		case errors.Is(err, common.ErrAllUnavailable):
			fmt.Println("Every item became unavailable; nothing was transferred.")
		default:
			fmt.Println("Error during checkout:", err)
		}
		return
	}

	if res.Dropped > 0 {
		fmt.Printf("Transferred %d of %d items; %d became unavailable and stayed behind.\n",
			res.Transferred, res.Requested, res.Dropped)
	} else {
		fmt.Printf("Transferred %d items to checkout.\n", res.Transferred)
	}
}
