// Package auth handles authentication and authorisation for the backend.
//
// Two kinds of actor authenticate: admins (name + password) and devices
// (mac + shared secret). Both credentials are verified against a salted
// digest using the legacy scheme carried over from earlier installations.
// Every request resolves to a Principal — Admin, Device, or Unauthenticated —
// whose capability set is a fixed table checked per action.
//
// Admins may also exchange their password for a short-lived JWT session
// token; devices always send their credentials on every request.
package auth
