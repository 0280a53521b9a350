package relay

// Reasons surfaced across the message channel
const (
	ReasonFailed            = "Failed to process request."
	ReasonDisabled          = "Extension is turned off."
	ReasonUnsupportedAction = "Unsupported action."
)

// Result kinds, used for metrics and logs
const (
	KindAnswer   = "answer"
	KindDisabled = "disabled"
	KindFailure  = "failure"
)

// Result is one of Answer, Disabled or Failure
type Result interface {
	Kind() string
	isResult()
}

// Answer carries the service's message, possibly empty
type Answer struct {
	Text string
}

// Disabled means the extension status is off
type Disabled struct{}

// Failure hides the underlying cause behind a generic reason
type Failure struct {
	Reason string
}

func (Answer) Kind() string   { return KindAnswer }
func (Disabled) Kind() string { return KindDisabled }
func (Failure) Kind() string  { return KindFailure }

func (Answer) isResult()   {}
func (Disabled) isResult() {}
func (Failure) isResult()  {}

func failed() Failure {
	return Failure{Reason: ReasonFailed}
}
