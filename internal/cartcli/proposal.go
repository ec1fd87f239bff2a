package cartcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/vallamarket/cartsync/internal/common"
	"github.com/vallamarket/cartsync/internal/models"
)

// proposalDoc is the JSON shape a sales proposal export uses.
type proposalDoc struct {
	Items       []models.CartItem `json:"items"`
	ActiveDates *models.DateRange `json:"active_dates"`
}

// proposal replaces the cart wholesale with the contents of a proposal
// file. Items are taken as-is; the next revalidation checks availability.
func (a *App) proposal(ctx context.Context, path string) {

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("Error reading proposal:", err)
		return
	}

	var doc proposalDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		fmt.Println("Invalid proposal file:", err)
		return
	}

	if err := a.engine.LoadFromProposal(ctx, doc.Items, doc.ActiveDates); err != nil {
		if errors.Is(err, common.ErrNotPermitted) {
			fmt.Println("Only advertisers can modify the cart; log in first.")
			return
		}
		fmt.Println("Error loading proposal:", err)
		return
	}

	fmt.Printf("Loaded %d items from proposal.\n", len(doc.Items))
}

// photo resolves a short-lived URL for an item's billboard photo.
func (a *App) photo(ctx context.Context, itemID string) {

	for _, it := range a.engine.Items() {
		if it.ID != itemID {
			continue
		}
		if it.PhotoRef == "" {
			fmt.Println("Item has no photo.")
			return
		}
		url, err := a.photos.ResolveURL(ctx, it.PhotoRef)
		if err != nil {
			fmt.Println("Error resolving photo:", err)
			return
		}
		fmt.Println(url)
		return
	}

	fmt.Println("No such item in the cart.")
}
