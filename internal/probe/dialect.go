package probe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/heinergc/sqlconn/internal/profiles"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	mssql "github.com/microsoft/go-mssqldb"
)

// Dialect holds what differs between database providers.
type Dialect interface {
	DriverName() string

	// DSN builds the driver connection string. password is the plaintext
	// secret and is only ever held in the returned string.
	DSN(p profiles.Profile, password string) string

	// CatalogDatabase is the database used to enumerate the server's
	// databases.
	CatalogDatabase() string
	ServerInfoQuery() string
	ListDatabasesQuery() string

	// Classify recognizes provider errors. ok is false for errors the
	// provider did not raise.
	Classify(err error) (category profiles.Category, code int, detail string, ok bool)
}

// DialectFor returns the dialect for a profile's provider.
func DialectFor(provider profiles.Provider) (Dialect, error) {
	switch provider {
	case profiles.ProviderSQLServer, "":
		return SQLServer{}, nil
	case profiles.ProviderPostgres:
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// SQLServer number codes with a dedicated category.
const (
	sqlServerUnreachable  = 2
	sqlNetworkUnreachable = 53
	sqlDatabaseMissing    = 4060
	sqlLoginFailed        = 18456
)

// SQLServer is the Microsoft SQL Server dialect.
type SQLServer struct{}

func (SQLServer) DriverName() string { return "sqlserver" }

func (SQLServer) CatalogDatabase() string { return "master" }

func (SQLServer) ServerInfoQuery() string { return "SELECT @@VERSION, DB_NAME()" }

func (SQLServer) ListDatabasesQuery() string {
	return "SELECT name FROM sys.databases WHERE state = 0 ORDER BY name"
}

// DSN renders an ODBC-style connection string. Every value is braced so
// passwords may contain ';' or '}'.
func (SQLServer) DSN(p profiles.Profile, password string) string {
	host, port := splitHostPort(p.Server, false)

	var b strings.Builder
	b.WriteString("odbc:")
	writeODBC(&b, "server", host)
	if port != "" {
		writeODBC(&b, "port", port)
	}
	if p.Database != "" {
		writeODBC(&b, "database", p.Database)
	}
	if p.IntegratedSecurity {
		writeODBC(&b, "integrated security", "true")
	} else {
		writeODBC(&b, "user id", p.Username)
		writeODBC(&b, "password", password)
	}
	writeODBC(&b, "connection timeout", strconv.Itoa(int(p.ConnectTimeout().Seconds())))
	writeODBC(&b, "command timeout", strconv.Itoa(int(p.QueryTimeout().Seconds())))
	writeODBC(&b, "TrustServerCertificate", strconv.FormatBool(p.TrustServerCertificate))
	writeODBC(&b, "app name", "sqlconn")
	return strings.TrimSuffix(b.String(), ";")
}

func writeODBC(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString("={")
	b.WriteString(strings.ReplaceAll(value, "}", "}}"))
	b.WriteString("};")
}

func (SQLServer) Classify(err error) (profiles.Category, int, string, bool) {
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		return sqlServerCategory(int(sqlErr.Number)), int(sqlErr.Number), sqlErr.Message, true
	}
	var sqlErrPtr *mssql.Error
	if errors.As(err, &sqlErrPtr) && sqlErrPtr != nil {
		return sqlServerCategory(int(sqlErrPtr.Number)), int(sqlErrPtr.Number), sqlErrPtr.Message, true
	}

	// The driver reports some login failures as plain text.
	if msg := err.Error(); strings.Contains(msg, "Login failed") {
		return profiles.CategoryAuthFailed, sqlLoginFailed, msg, true
	}
	return "", 0, "", false
}

func sqlServerCategory(number int) profiles.Category {
	switch number {
	case sqlServerUnreachable:
		return profiles.CategoryServerUnreachable
	case sqlLoginFailed:
		return profiles.CategoryAuthFailed
	case sqlNetworkUnreachable:
		return profiles.CategoryNetworkUnreachable
	case sqlDatabaseMissing:
		return profiles.CategoryDatabaseMissing
	default:
		return profiles.CategoryProviderError
	}
}

// Postgres is the PostgreSQL dialect.
type Postgres struct{}

func (Postgres) DriverName() string { return "pgx" }

func (Postgres) CatalogDatabase() string { return "postgres" }

func (Postgres) ServerInfoQuery() string { return "SELECT version(), current_database()" }

func (Postgres) ListDatabasesQuery() string {
	return "SELECT datname FROM pg_database WHERE datallowconn AND NOT datistemplate ORDER BY datname"
}

// DSN renders a libpq keyword/value connection string.
func (Postgres) DSN(p profiles.Profile, password string) string {
	host, port := splitHostPort(p.Server, true)

	parts := []string{"host=" + pgQuote(host)}
	if port != "" {
		parts = append(parts, "port="+pgQuote(port))
	}
	if p.Database != "" {
		parts = append(parts, "dbname="+pgQuote(p.Database))
	}
	if !p.IntegratedSecurity {
		parts = append(parts, "user="+pgQuote(p.Username), "password="+pgQuote(password))
	}
	parts = append(parts, "connect_timeout="+strconv.Itoa(int(p.ConnectTimeout().Seconds())))
	if p.TrustServerCertificate {
		parts = append(parts, "sslmode=prefer")
	} else {
		parts = append(parts, "sslmode=verify-full")
	}
	parts = append(parts, "application_name=sqlconn")
	return strings.Join(parts, " ")
}

func pgQuote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (Postgres) Classify(err error) (profiles.Category, int, string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", 0, "", false
	}

	detail := fmt.Sprintf("SQLSTATE %s: %s", pgErr.Code, pgErr.Message)
	switch pgErr.Code {
	case "28P01", "28000":
		return profiles.CategoryAuthFailed, 0, detail, true
	case "3D000":
		return profiles.CategoryDatabaseMissing, 0, detail, true
	default:
		return profiles.CategoryProviderError, 0, detail, true
	}
}

// splitHostPort separates "host,port" and, when colon is set, "host:port".
// SQL Server instance names ("host\instance") are left intact.
func splitHostPort(server string, colon bool) (host, port string) {
	server = strings.TrimSpace(server)
	server = strings.TrimPrefix(server, "tcp:")

	if i := strings.LastIndex(server, ","); i >= 0 {
		return strings.TrimSpace(server[:i]), strings.TrimSpace(server[i+1:])
	}
	if colon && strings.Count(server, ":") == 1 {
		i := strings.Index(server, ":")
		return server[:i], server[i+1:]
	}
	return server, ""
}
