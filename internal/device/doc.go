// Package device defines the access controllers and the tools wired to them.
//
// A Device is a wall-mounted controller identified by mac address; it owns a
// set of Tools, each on a distinct pin. Tools carry an operational state
// (GOOD/BAD/DISABLED) and a set of required qualifications stored in the
// tool_qualifications association table.
//
// The repositories use hand-written SQL over database/sql. Relation queries
// are eager: RequiredQualificationsForDevice fetches every requirement for a
// device's tools in one join, so permission resolution never walks an object
// graph lazily.
package device
