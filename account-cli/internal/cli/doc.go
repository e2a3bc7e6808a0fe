// Package cli implements the interactive terminal client: a REPL whose
// commands mirror the mobile screens (login, register, forgot password,
// profile and products).
//
// The signed-in *accountsdk.Session is passed explicitly to every command
// that needs it. Logging out discards the session and returns the prompt to
// the signed-out command set.
package cli
