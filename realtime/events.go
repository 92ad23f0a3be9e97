package realtime

import "strconv"

// Event names as clients subscribe to them
const (
	EventConnected        = "connected"
	EventMenuItemAdded    = "menuItemAdded"
	EventMenuItemUpdated  = "menuItemUpdated"
	EventMenuItemDeleted  = "menuItemDeleted"
	EventMenuCleared      = "menuCleared"
	EventNewOrder         = "newOrder"
	EventOrderStatus      = "orderStatusUpdated"
	EventOrderCancelled   = "orderCancelled"
	EventOrderRemoved     = "orderRemoved"
	EventDeliveryLocation = "deliveryLocationUpdate"

	// EventTrackedStatus is sent only to sessions tracking the order
	EventTrackedStatus = "orderStatusUpdate"
)

type Event struct {
	Name    string `json:"event"`
	Topic   string `json:"topic,omitempty"`
	Payload any    `json:"payload"`
}

// Publisher is what the services see of the notifier. Calls never block on
// slow subscribers and never fail the caller.
type Publisher interface {
	Broadcast(name string, payload any)
	PublishTopic(topic, name string, payload any)
}

// OrderTopic names the per-order tracking topic
func OrderTopic(orderID uint) string {
	return "order:" + strconv.FormatUint(uint64(orderID), 10)
}
