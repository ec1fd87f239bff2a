package cartcli

import (
	"context"
	"fmt"
)

// show prints the cart contents with per-item validity.
func (a *App) show(_ context.Context) {

	items := a.engine.Items()
	if len(items) == 0 {
		fmt.Println("Cart is empty")
		return
	}

	if r := a.engine.ActiveDates(); r != nil {
		fmt.Printf("Active dates: %s\n", r)
	}

	for _, it := range items {
		status := "ok"
		if !it.IsValid {
			status = "INVALID: " + it.ValidationError
		}
		fmt.Printf("  %s  %s  %s  %s  %s  [%s]\n",
			it.ID, it.BillboardID, it.Name, it.Range(), it.Price, status)
	}

	if a.engine.HasConflicts() {
		fmt.Println("Some items conflict with reservations made elsewhere; adjust dates or remove them.")
	}
}
