package models

// CartItem is one billboard held in the cart for a date range. The ID is
// minted per add and is not stable across re-adds of the same billboard;
// at most one item per billboard is allowed in a cart at a time.
type CartItem struct {
	ID              string `json:"id"`
	BillboardID     string `json:"billboard_id"`
	Name            string `json:"name"`
	Location        string `json:"location"`
	Category        string `json:"category"`
	Price           Money  `json:"price"`
	StartDate       Date   `json:"start_date"`
	EndDate         Date   `json:"end_date"`
	IsValid         bool   `json:"is_valid"`
	ValidationError string `json:"validation_error,omitempty"`
	OwnerID         string `json:"owner_id,omitempty"`
	Dimensions      string `json:"dimensions,omitempty"`
	PhotoRef        string `json:"photo_ref,omitempty"`
}

// Range returns the item's own booked range. Items keep the range they were
// added with until a revalidation pass rewrites it.
func (i CartItem) Range() DateRange {
	return DateRange{Start: i.StartDate, End: i.EndDate}
}
