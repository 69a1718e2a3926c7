// Package probe tests connection profiles against live database servers.
//
// A Runner opens a database/sql handle for a profile, pings it within the
// profile's connection timeout and reports a profiles.TestOutcome. Failures
// are classified into stable categories (server unreachable, authentication
// failed, network or port unreachable, database missing, provider error,
// unexpected error) and always carry the elapsed time.
//
// Two providers are supported through the Dialect interface: SQL Server via
// github.com/microsoft/go-mssqldb and PostgreSQL via the pgx stdlib driver.
package probe
