package payment

// State is a step of the payment flow.
type State string

const (
	StatePhoneEntry           State = "PHONE_ENTRY"
	StateInstructionsShown    State = "INSTRUCTIONS_SHOWN"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateConfirmed            State = "CONFIRMED"
	StateExpired              State = "EXPIRED"
	StateFailed               State = "FAILED"
)

// Trigger is a state machine event.
type Trigger string

const (
	TriggerInitiate Trigger = "initiate"
	TriggerAwait    Trigger = "await"
	TriggerConfirm  Trigger = "confirm"
	TriggerExpire   Trigger = "expire"
	TriggerFail     Trigger = "fail"
	TriggerRetry    Trigger = "retry"
)
