package models

import "time"

// CartSnapshot is the persisted unit: the full item list, the last range
// used for validation, and the mutation timestamp used as the tie-break
// signal when the local and remote copies disagree.
type CartSnapshot struct {
	Items       []CartItem `json:"items"`
	ActiveDates *DateRange `json:"active_dates"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
