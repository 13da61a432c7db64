package commands

// Command is a validated mutation request routed through the Bus.
type Command interface {
	CommandType() string
	Validate() error
}

// Result carries the outcome of an executed command.
type Result struct {
	AggregateID string
	Payload     interface{}
}
