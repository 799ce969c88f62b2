// Package config loads runtime configuration for the Conduit CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see Default).
//  2. Optional YAML file selected with --config.
//  3. Environment variables prefixed with CONDUIT_CLIENT_.
//  4. Command-line flags bound with BindFlags.
//
// Example file:
//
//	server_addr: 127.0.0.1:50051
//	state_dir: /home/me/.config/conduit
//	timeout: 10s
package config
