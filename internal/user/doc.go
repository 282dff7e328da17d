// Package user manages lab members: their identity, card credentials,
// lock state, and the qualification grants that drive tool authorisation.
//
// A user is identified at a device either by a card pair (card id plus a
// secret read from the card) or by phone number alone. Authorisation is
// computed from the qualifications a user holds; the direct user-to-tool
// permission relation is retained only for compatibility with data
// imported from older installations.
package user
