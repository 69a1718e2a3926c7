// Package configs manages sqlconn settings and on-disk locations.
//
// Everything sqlconn stores lives under a dedicated Data directory below the
// home directory. The home directory is the process working directory unless
// SQLCONN_HOME is set:
//
//	<home>/Data/settings.toml     optional settings (this package)
//	<home>/Data/connections.json  connection profiles (profiles.Store)
//	<home>/Data/audit.jsonl       audit trail (audit package)
//	<home>/Reports/               generated spreadsheets (report package)
//
// A missing settings file means defaults; only unreadable TOML is an error.
// Relative paths inside the settings file are resolved against the Data
// directory.
package configs
