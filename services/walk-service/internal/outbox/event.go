package outbox

// Event is the domain event envelope written to the outbox table in the same
// transaction as the state change it describes. The Kafka topic name equals
// EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Topics emitted by the walk service.
const (
	EventWalkCreated       = "walk.created.v1"
	EventWalkStatusChanged = "walk.status_changed.v1"
)
