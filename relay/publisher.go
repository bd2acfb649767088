package relay

// Target selects which connections receive a delivery
type Target int

const (
	// TargetSender delivers to the originating connection only
	TargetSender Target = iota
	// TargetOthers delivers to every connection except the originator
	TargetOthers
	// TargetAll delivers to every connection
	TargetAll
)

func (t Target) String() string {
	switch t {
	case TargetSender:
		return "sender"
	case TargetOthers:
		return "others"
	case TargetAll:
		return "all"
	}
	return "unknown"
}

// Delivery is one outbound event together with its fan-out target
type Delivery struct {
	Target Target
	ConnID string
	Event  string
	Data   interface{}
}

// Publisher carries deliveries to connected clients
type Publisher interface {
	Publish(d Delivery)
}

func toSender(connID, event string, data interface{}) Delivery {
	return Delivery{Target: TargetSender, ConnID: connID, Event: event, Data: data}
}

func toOthers(connID, event string, data interface{}) Delivery {
	return Delivery{Target: TargetOthers, ConnID: connID, Event: event, Data: data}
}

func toAll(event string, data interface{}) Delivery {
	return Delivery{Target: TargetAll, Event: event, Data: data}
}
