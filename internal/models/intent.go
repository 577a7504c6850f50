package models

// Intent is the closed set of operations a user request can resolve to.
type Intent string

const (
	IntentGetTelephoneAddress    Intent = "GetTelephoneAddress"
	IntentCreateTelephoneAddress Intent = "CreateTelephoneAddress"
	IntentUpdateTelephoneAddress Intent = "UpdateTelephoneAddress"
	IntentGetPostalAddress       Intent = "GetPostalAddress"
	IntentCreatePostalAddress    Intent = "CreatePostalAddress"
	IntentUpdatePostalAddress    Intent = "UpdatePostalAddress"
	IntentGeneralChat            Intent = "GeneralChat"
)

// Action is the kind of operation an intent performs.
type Action string

const (
	ActionGet    Action = "get"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionChat   Action = "chat"
)

// AllIntents lists every known intent in a stable order.
var AllIntents = []Intent{
	IntentGetTelephoneAddress,
	IntentCreateTelephoneAddress,
	IntentUpdateTelephoneAddress,
	IntentGetPostalAddress,
	IntentCreatePostalAddress,
	IntentUpdatePostalAddress,
	IntentGeneralChat,
}

// ParseIntent maps a label to an Intent. Unknown labels become GeneralChat.
func ParseIntent(label string) Intent {
	intent, ok := LookupIntent(label)
	if !ok {
		return IntentGeneralChat
	}
	return intent
}

// LookupIntent reports whether label names a known intent.
func LookupIntent(label string) (Intent, bool) {
	for _, intent := range AllIntents {
		if string(intent) == label {
			return intent, true
		}
	}
	return "", false
}

func (i Intent) String() string { return string(i) }

// Domain returns the record family the intent operates on.
func (i Intent) Domain() Domain {
	switch i {
	case IntentGetTelephoneAddress, IntentCreateTelephoneAddress, IntentUpdateTelephoneAddress:
		return DomainTelephone
	case IntentGetPostalAddress, IntentCreatePostalAddress, IntentUpdatePostalAddress:
		return DomainPostal
	default:
		return DomainGeneral
	}
}

func (i Intent) Action() Action {
	switch i {
	case IntentGetTelephoneAddress, IntentGetPostalAddress:
		return ActionGet
	case IntentCreateTelephoneAddress, IntentCreatePostalAddress:
		return ActionCreate
	case IntentUpdateTelephoneAddress, IntentUpdatePostalAddress:
		return ActionUpdate
	default:
		return ActionChat
	}
}

// IsWrite reports whether the intent creates or updates a remote record.
func (i Intent) IsWrite() bool {
	a := i.Action()
	return a == ActionCreate || a == ActionUpdate
}
