// Package checkout builds the payload the booking wizard consumes and writes
// it across the storage boundary. The wizard predates this module and reads a
// fixed JSON shape with its original field names, so the payload format is
// frozen here rather than shared with the cart models.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vallamarket/cartsync/internal/logging"
	"github.com/vallamarket/cartsync/internal/models"
)

// Line is one billboard in the wizard payload. Field names are part of the
// wizard's contract and must not change.
type Line struct {
	ID          string `json:"id"`
	BillboardID string `json:"billboardId"`
	Name        string `json:"nombre"`
	Location    string `json:"ubicacion"`
	Price       string `json:"precio"`
	Currency    string `json:"moneda"`
	StartDate   string `json:"fechaInicio"`
	EndDate     string `json:"fechaFin"`
}

// Payload is the full handoff document.
type Payload struct {
	Lines []Line `json:"items"`
}

// BuildPayload converts surviving cart items into the wizard's shape. Dates
// are day-precision ISO strings; the price keeps its decimal representation.
func BuildPayload(items []models.CartItem) Payload {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{
			ID:          it.ID,
			BillboardID: it.BillboardID,
			Name:        it.Name,
			Location:    it.Location,
			Price:       it.Price.Amount.String(),
			Currency:    it.Price.Currency.String(),
			StartDate:   it.StartDate.String(),
			EndDate:     it.EndDate.String(),
		})
	}
	return Payload{Lines: lines}
}

// HandoffStore persists the serialized payload where the wizard will find
// it. The local store satisfies this.
type HandoffStore interface {
	SaveHandoff(ctx context.Context, namespace string, payload []byte) error
}

// Writer adapts HandoffStore to the engine's handoff contract.
type Writer struct {
	store HandoffStore
	log   logging.Logger
}

func NewWriter(store HandoffStore, log logging.Logger) *Writer {
	return &Writer{store: store, log: log.With("module", "checkout")}
}

// WriteHandoff serializes the items and stores them under the cart's
// namespace, replacing any earlier handoff.
func (w *Writer) WriteHandoff(ctx context.Context, namespace string, items []models.CartItem) error {
	data, err := json.Marshal(BuildPayload(items))
	if err != nil {
		return fmt.Errorf("failed to encode handoff payload: %w", err)
	}

	if err := w.store.SaveHandoff(ctx, namespace, data); err != nil {
		return fmt.Errorf("failed to write handoff: %w", err)
	}

	w.log.Info(ctx, "handoff written", "namespace", namespace, "items", len(items))
	return nil
}
