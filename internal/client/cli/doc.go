// Package cli implements the Conduit command-line client.
//
// Every command is a cobra subcommand of NewRootCmd. Configuration is loaded
// before a command runs, and the login session is kept in the state dir
// between invocations, so a typical flow is
//
//	conduit register
//	conduit login --email me@example.com
//	conduit article create --title "Hello" --tag go
//	conduit favorite 1
//
// Passwords are read from the terminal without echo and wiped after use.
package cli
