package services

// EventPublisher is the outbound side of the message broker. Services
// treat a nil publisher as "messaging disabled" and skip publishing,
// never fail the triggering operation over it.
type EventPublisher interface {
	PublishJSON(routingKey string, payload interface{}) error
}

// Event routing keys on the shop events exchange.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventProductChanged     = "product.changed"
	EventSessionChanged     = "session.changed"
)

// SessionListener receives the resolved session every time the gate
// re-evaluates identity (login, registration, logout). Views use it to
// refresh role-dependent chrome.
type SessionListener func(Session)
