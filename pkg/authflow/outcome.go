package authflow

import "github.com/friturisme/friturisme/pkg/identity"

// OutcomeKind is the terminal state of one sign-in attempt. Every attempt
// runs idle → in-flight → exactly one of these.
type OutcomeKind int

const (
	SessionReady OutcomeKind = iota
	ConfirmationPending
	Cancelled
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case SessionReady:
		return "session-ready"
	case ConfirmationPending:
		return "confirmation-pending"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome of a sign-in or sign-up attempt. Session is set for
// SessionReady, Failure for Failed. Cancelled carries neither: the user
// backed out and no message is shown.
type Outcome struct {
	Kind    OutcomeKind
	Session *identity.Session
	Failure *Failure
}

// Failure is a user-facing failure. Message is what the user sees;
// the wrapped cause is for logs only and never reaches the UI.
type Failure struct {
	Message string
	// Validation is set when the input was rejected before any network
	// call was made.
	Validation bool
	cause      error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.cause
}

// User-facing messages, matching the app's voice. Provider failures
// collapse to one generic message per operation; only validation
// failures say what to correct.
const (
	MsgFillCredentials  = "Vul uw e-mail en wachtwoord in."
	MsgPasswordTooShort = "Uw wachtwoord moet minstens 6 tekens hebben."
	MsgOAuthFailed      = "Er is iets misgelopen. Waarschijnlijk het frituurvet. Probeer opnieuw."
	MsgSignInFailed     = "Inloggen mislukt. Controleer uw e-mail en wachtwoord."
	MsgSignUpFailed     = "Registratie mislukt. Probeer een ander e-mailadres of wachtwoord."
	MsgCheckInbox       = "Check uw inbox. We hebben een bevestigingsmail gestuurd. Klik op de link en log dan in."
)
