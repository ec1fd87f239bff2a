package models

// ReservationStatus mirrors the backend's reservation states.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationPending   ReservationStatus = "pending"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationRejected  ReservationStatus = "rejected"
)

// Blocking reports whether a reservation in this status occupies the
// billboard for its range.
func (s ReservationStatus) Blocking() bool {
	return s == ReservationActive || s == ReservationPending
}

// ReservationEvent is one row-level create/update notification from the
// reservation feed. Field names follow the backend payload.
type ReservationEvent struct {
	Type   string `json:"event"` // INSERT or UPDATE
	Config struct {
		BillboardID string `json:"billboard_id"`
	} `json:"config"`
	Start  Date              `json:"fecha_inicio"`
	End    Date              `json:"fecha_fin"`
	Status ReservationStatus `json:"status"`
}

func (e ReservationEvent) Range() DateRange {
	return DateRange{Start: e.Start, End: e.End}
}
