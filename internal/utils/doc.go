// Package utils provides shared helpers for sqlconn.
//
// # System Utilities
//
//   - GetUsername: the current operating-system user name
//   - GetHostname: the machine host name
//
// Both feed the machine-bound key derivation in the secrets package, so
// their output must be stable for a given machine and account.
//
// # Terminal and Prompt Utilities
//
//   - IsTerminal: reports whether stdin is an interactive terminal
//   - Prompter: line-oriented questions, confirmations and masked password
//     input over any io.Reader/io.Writer pair, so menu code is testable
package utils
