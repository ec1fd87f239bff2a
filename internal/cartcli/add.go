package cartcli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vallamarket/cartsync/internal/cart"
	"github.com/vallamarket/cartsync/internal/common"
	"github.com/vallamarket/cartsync/internal/models"
)

// add interactively collects a billboard and a date range and puts it in
// the cart.
func (a *App) add(ctx context.Context) {

	billboardID, err := GetSimpleText(a.reader, "Billboard id", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	name, err := GetSimpleText(a.reader, "Name", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	location, err := GetSimpleText(a.reader, "Location", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	amount, err := GetSimpleText(a.reader, "Monthly price (e.g. 1500.50)", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	code, err := GetSimpleText(a.reader, "Currency (ISO code)", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	price, err := models.NewMoney(amount, code)
	if err != nil {
		fmt.Println("Invalid price:", err)
		return
	}

	startStr, err := GetSimpleText(a.reader, "Start date (2006-01-02)", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	endStr, err := GetSimpleText(a.reader, "End date (2006-01-02)", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	dates, err := parseRange(startStr, endStr)
	if err != nil {
		fmt.Println("Invalid dates:", err)
		return
	}

	params := cart.AddParams{
		BillboardID: billboardID,
		Name:        name,
		Location:    location,
		Price:       price,
	}

	if err := a.engine.AddToCart(ctx, params, dates); err != nil {
		switch {
		case errors.Is(err, common.ErrNotPermitted):
			fmt.Println("Only advertisers can modify the cart; log in first.")
		case errors.Is(err, common.ErrMissingDates):
			fmt.Println("Select both start and end dates first.")
		case errors.Is(err, common.ErrDuplicateItem):
			fmt.Println("That billboard is already in your cart.")
		case errors.Is(err, common.ErrUnavailable):
			fmt.Println("Billboard is not available for those dates.")
		default:
			fmt.Println("Error adding to cart:", err)
		}
		return
	}

	fmt.Println("Added.")
}

func parseRange(startStr, endStr string) (models.DateRange, error) {
	start, err := models.ParseDate(startStr)
	if err != nil {
		return models.DateRange{}, err
	}
	end, err := models.ParseDate(endStr)
	if err != nil {
		return models.DateRange{}, err
	}
	return models.DateRange{Start: start, End: end}, nil
}
