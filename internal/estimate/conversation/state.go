package conversation

// State is a conversation step.
type State string

const (
	StateCollectingProblem           State = "collectingProblem"
	StateServiceIdentified           State = "serviceIdentified"
	StateCollectingName              State = "collectingName"
	StateCollectingEmail             State = "collectingEmail"
	StateCollectingPhone             State = "collectingPhone"
	StateCollectingContactPreference State = "collectingContactPreference"
	StateCompleted                   State = "completed"
	StateDiscarded                   State = "discarded"
)

var knownStates = map[State]bool{
	StateCollectingProblem:           true,
	StateServiceIdentified:           true,
	StateCollectingName:              true,
	StateCollectingEmail:             true,
	StateCollectingPhone:             true,
	StateCollectingContactPreference: true,
	StateCompleted:                   true,
	StateDiscarded:                   true,
}

// Terminal reports whether the state only accepts restart.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateDiscarded
}

// Mode is the presentation style driving a session.
type Mode string

const (
	ModeChat   Mode = "chat"
	ModeWizard Mode = "wizard"
)

// ParseMode accepts "chat" or "wizard"; empty defaults to chat.
func ParseMode(value string) (Mode, bool) {
	switch Mode(value) {
	case "", ModeChat:
		return ModeChat, true
	case ModeWizard:
		return ModeWizard, true
	default:
		return "", false
	}
}

// SlotPolicy controls how contact slots are collected.
type SlotPolicy int

const (
	// MicroStep collects name, email and phone one event at a time.
	MicroStep SlotPolicy = iota
	// AtomicStep collects name, email and phone in one event.
	AtomicStep
)

// PolicyFor returns the slot policy used by a mode.
func PolicyFor(m Mode) SlotPolicy {
	if m == ModeWizard {
		return AtomicStep
	}
	return MicroStep
}

// EventType names an inbound presentation event.
type EventType string

const (
	EventSubmitProblem           EventType = "submitProblem"
	EventSelectProblem           EventType = "selectProblem"
	EventSelectUrgency           EventType = "selectUrgency"
	EventSubmitName              EventType = "submitName"
	EventSubmitEmail             EventType = "submitEmail"
	EventSubmitPhone             EventType = "submitPhone"
	EventSubmitCustomerInfo      EventType = "submitCustomerInfo"
	EventSubmitContactPreference EventType = "submitContactPreference"
	EventRestart                 EventType = "restart"
	EventCancel                  EventType = "cancel"
)

// Event is one input from a presentation adapter. Value carries the slot
// text for single-slot events; Name, Email and Phone are used by
// submitCustomerInfo.
type Event struct {
	Type  EventType `json:"type"`
	Value string    `json:"value,omitempty"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
}

func SubmitProblem(text string) Event   { return Event{Type: EventSubmitProblem, Value: text} }
func SelectProblem(phrase string) Event { return Event{Type: EventSelectProblem, Value: phrase} }
func SelectUrgency(level string) Event  { return Event{Type: EventSelectUrgency, Value: level} }
func SubmitName(name string) Event      { return Event{Type: EventSubmitName, Value: name} }
func SubmitEmail(email string) Event    { return Event{Type: EventSubmitEmail, Value: email} }
func SubmitPhone(phone string) Event    { return Event{Type: EventSubmitPhone, Value: phone} }
func SubmitContactPreference(value string) Event {
	return Event{Type: EventSubmitContactPreference, Value: value}
}
func SubmitCustomerInfo(name, email, phone string) Event {
	return Event{Type: EventSubmitCustomerInfo, Name: name, Email: email, Phone: phone}
}
func Restart() Event { return Event{Type: EventRestart} }
func Cancel() Event  { return Event{Type: EventCancel} }
