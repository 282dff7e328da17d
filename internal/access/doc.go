// Package access implements the permission resolver: given a device
// identity (mac) and a user-identifying credential (a card pair or a phone
// number), it computes the set of tools the user may operate on that device.
//
// Resolution is a single read-only pass over the entity store. The one
// exception is the v2 config-fetch path, which auto-provisions unknown
// devices with placeholder fields; every other entry point never writes.
// Unknown users, wrong card secrets, and locked users all fold into an
// empty permitted set rather than distinct errors, so the client-facing
// query leaks nothing about which identifiers are registered.
//
// The package also renders the line-oriented text formats the embedded
// controllers consume.
package access
