package models

// Domain identifies one of the address record families.
type Domain string

const (
	DomainTelephone Domain = "telephone"
	DomainPostal    Domain = "postal"
	DomainGeneral   Domain = "general"
)

// KeyField is the business key shared by both address entity sets.
const KeyField = "PLANT"

// TelephoneFields is the fixed field list of the plant telephone address record.
var TelephoneFields = []string{
	"PLANT", "COUNTRY", "COUNTRYISO", "STD_NO", "TELEPHONE", "EXTENSION",
	"TEL_NO", "CALLER_NO", "STD_RECIP", "R_3_USER", "HOME_FLAG", "CONSNUMBER",
	"ERRORFLAG", "FLG_NOUSE", "VALID_FROM", "VALID_TO", "MSG_TYP", "MSG_DESC",
}

// PostalFields is the fixed field list of the plant postal address record.
var PostalFields = []string{
	"PLANT", "ADDR_VERS", "FROM_DATE", "TO_DATE", "TITLE", "NAME", "NAME_2",
	"NAME_3", "NAME_4", "CONV_NAME", "C_O_NAME", "CITY", "DISTRICT", "CITY_NO",
	"DISTRCT_NO", "POSTL_COD1", "POSTL_COD2", "POSTL_COD3", "STREET",
	"STREET_NO", "STR_ABBR", "HOUSE_NO", "HOUSE_NO2", "HOUSE_NO3", "STR_SUPPL1",
	"STR_SUPPL2", "STR_SUPPL3", "LOCATION", "BUILDING", "FLOOR", "ROOM_NO",
	"COUNTRY", "COUNTRYISO", "LANGU", "LANGU_ISO", "REGION", "SORT1", "SORT2",
}

// Fields returns the domain's field list, or nil for the general domain.
func (d Domain) Fields() []string {
	switch d {
	case DomainTelephone:
		return TelephoneFields
	case DomainPostal:
		return PostalFields
	default:
		return nil
	}
}

// Intents returns the structured intents belonging to the domain.
func (d Domain) Intents() []Intent {
	switch d {
	case DomainTelephone:
		return []Intent{IntentGetTelephoneAddress, IntentCreateTelephoneAddress, IntentUpdateTelephoneAddress}
	case DomainPostal:
		return []Intent{IntentGetPostalAddress, IntentCreatePostalAddress, IntentUpdatePostalAddress}
	default:
		return nil
	}
}

// Label is the human readable name used in prompts and messages.
func (d Domain) Label() string {
	switch d {
	case DomainTelephone:
		return "telephone address"
	case DomainPostal:
		return "postal address"
	default:
		return "general"
	}
}
