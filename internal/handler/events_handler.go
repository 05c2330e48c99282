package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/event"

	"github.com/labstack/echo/v4"
)

// 通知を購読する約束
type EventSubscriber interface {
	Subscribe(shopperID string) (<-chan event.Event, func())
}

// EventsHandler は /cart/events（Server-Sent Events）。
type EventsHandler struct {
	bus       EventSubscriber
	heartbeat time.Duration
}

// DI
func NewEventsHandler(bus EventSubscriber, heartbeat time.Duration) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &EventsHandler{bus: bus, heartbeat: heartbeat}
}

func (h *EventsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/cart/events", h.stream)
}

func (h *EventsHandler) stream(c echo.Context) error {
	shopperID, ok := getShopperIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "shopper id required"})
	}

	events, cancel := h.bus.Subscribe(shopperID)
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", ev.Topic, data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
