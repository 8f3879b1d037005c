package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Catalog event discriminators from the upstream ticketing system.
const (
	EventTicketCreated      = "ticket_created"
	EventTicketStockUpdated = "ticket_stock_updated"
)

// ErrUnknownCatalogEvent marks an event type this service does not handle.
// Unknown events are dropped, not failed; upstream may add types.
var ErrUnknownCatalogEvent = errors.New("unknown catalog event")

// TicketCreated announces a new catalog item with its initial stock.
type TicketCreated struct {
	TicketID       int64  `json:"ticket_id"`
	PriceReference string `json:"price_reference"`
	Stock          int64  `json:"stock"`
}

// TicketStockUpdated overwrites the stock of an existing item.
type TicketStockUpdated struct {
	TicketID int64 `json:"ticket_id"`
	Stock    int64 `json:"stock"`
}

type catalogEnvelope struct {
	Event string `json:"event"`
}

// ParseCatalogEvent decodes a queue message into its typed variant,
// validating required fields at the boundary. The returned value is one of
// TicketCreated or TicketStockUpdated.
func ParseCatalogEvent(body []byte) (any, error) {
	var env catalogEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode catalog message: %w", err)
	}

	switch env.Event {
	case EventTicketCreated:
		var ev TicketCreated
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		if ev.TicketID == 0 || ev.PriceReference == "" {
			return nil, fmt.Errorf("%s: missing ticket_id or price_reference", env.Event)
		}
		if ev.Stock < 0 {
			return nil, fmt.Errorf("%s: negative stock", env.Event)
		}
		return ev, nil
	case EventTicketStockUpdated:
		var ev TicketStockUpdated
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		if ev.TicketID == 0 {
			return nil, fmt.Errorf("%s: missing ticket_id", env.Event)
		}
		if ev.Stock < 0 {
			return nil, fmt.Errorf("%s: negative stock", env.Event)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCatalogEvent, env.Event)
	}
}
