package access

// Credential identifies a user at a device. Either the card pair is set or
// the phone number is; a card secret acts as a shared proof while a phone
// number is a weaker, secret-less lookup.
type Credential struct {
	CardID     string
	CardSecret string
	Phone      string
}

// CardCredential builds a credential from a card id and its secret.
func CardCredential(cardID, cardSecret string) Credential {
	return Credential{CardID: cardID, CardSecret: cardSecret}
}

// PhoneCredential builds a credential from a phone number alone.
func PhoneCredential(phone string) Credential {
	return Credential{Phone: phone}
}

// IsCard reports whether the credential is a card pair.
func (c Credential) IsCard() bool {
	return c.CardID != ""
}

// IsEmpty reports whether the credential carries no identity at all.
func (c Credential) IsEmpty() bool {
	return c.CardID == "" && c.Phone == ""
}
