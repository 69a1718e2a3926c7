package probe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	logger "github.com/heinergc/sqlconn/internal/logging"
	"github.com/heinergc/sqlconn/internal/profiles"
)

// Decrypter recovers a stored password.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// OpenFunc opens a database handle. It matches sql.Open.
type OpenFunc func(driverName, dataSourceName string) (*sql.DB, error)

// Runner tests profiles. It holds no connections between calls.
type Runner struct {
	cipher Decrypter
	open   OpenFunc
	now    func() time.Time
	log    logger.Logger
}

type Option func(*Runner)

// WithOpener replaces sql.Open, mainly for tests.
func WithOpener(open OpenFunc) Option {
	return func(r *Runner) { r.open = open }
}

// WithClock replaces time.Now for elapsed time measurement.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func WithLogger(log logger.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// NewRunner returns a Runner that decrypts passwords with cipher.
func NewRunner(cipher Decrypter, opts ...Option) *Runner {
	r := &Runner{
		cipher: cipher,
		open:   sql.Open,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// QueryOutcome reports whether an operator query ran. Scalar holds the first
// column of the first row, if any.
type QueryOutcome struct {
	Success   bool
	Category  profiles.Category
	Message   string
	Scalar    string
	HasScalar bool
	Elapsed   time.Duration
}

// Test connects with p and reports the outcome. The server version and
// database name are read best-effort after a successful connection.
func (r *Runner) Test(ctx context.Context, p profiles.Profile) profiles.TestOutcome {
	start := r.now()
	fail := func(category profiles.Category, code int, detail string) profiles.TestOutcome {
		end := r.now()
		r.log.Debugf("Test of %q failed after %s: %s", p.Name, end.Sub(start), detail)
		return profiles.NewFailure(category, code, detail, end.Sub(start), end)
	}

	dialect, err := DialectFor(p.EffectiveProvider())
	if err != nil {
		return fail(profiles.CategoryUnexpected, 0, err.Error())
	}

	db, err := r.connect(ctx, dialect, p)
	if err != nil {
		if category, ok := asSecretError(err); ok {
			return fail(category, 0, err.Error())
		}
		category, code, detail := Classify(dialect, err)
		return fail(category, code, detail)
	}
	defer db.Close()

	version, database := r.serverInfo(ctx, db, dialect, p)

	end := r.now()
	r.log.Debugf("Test of %q succeeded in %s", p.Name, end.Sub(start))
	return profiles.NewSuccess(end.Sub(start), end, version, database)
}

// ListDatabases returns the online databases of p's server ordered by name.
// It connects to the catalog database rather than p.Database. Any failure
// is logged and yields an empty list.
func (r *Runner) ListDatabases(ctx context.Context, p profiles.Profile) []string {
	names := []string{}

	dialect, err := DialectFor(p.EffectiveProvider())
	if err != nil {
		r.log.Warnf("Could not list databases for %q: %v", p.Name, err)
		return names
	}

	target := p.Clone()
	target.Database = dialect.CatalogDatabase()

	db, err := r.connect(ctx, dialect, target)
	if err != nil {
		r.log.Warnf("Could not list databases for %q: %v", p.Name, err)
		return names
	}
	defer db.Close()

	queryCtx, cancel := context.WithTimeout(ctx, p.QueryTimeout())
	defer cancel()

	rows, err := db.QueryContext(queryCtx, dialect.ListDatabasesQuery())
	if err != nil {
		r.log.Warnf("Could not list databases for %q: %v", p.Name, err)
		return names
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			r.log.Warnf("Could not list databases for %q: %v", p.Name, err)
			return []string{}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		r.log.Warnf("Could not list databases for %q: %v", p.Name, err)
		return []string{}
	}
	return names
}

// RunQuery executes query with p's command timeout. Rows beyond the first
// value are discarded.
func (r *Runner) RunQuery(ctx context.Context, p profiles.Profile, query string) QueryOutcome {
	start := r.now()
	fail := func(category profiles.Category, code int, detail string) QueryOutcome {
		out := profiles.NewFailure(category, code, detail, 0, start)
		return QueryOutcome{Category: category, Message: out.Message, Elapsed: r.now().Sub(start)}
	}

	if strings.TrimSpace(query) == "" {
		return fail(profiles.CategoryUnexpected, 0, "query is empty")
	}

	dialect, err := DialectFor(p.EffectiveProvider())
	if err != nil {
		return fail(profiles.CategoryUnexpected, 0, err.Error())
	}

	db, err := r.connect(ctx, dialect, p)
	if err != nil {
		if category, ok := asSecretError(err); ok {
			return fail(category, 0, err.Error())
		}
		return fail(Classify(dialect, err))
	}
	defer db.Close()

	queryCtx, cancel := context.WithTimeout(ctx, p.QueryTimeout())
	defer cancel()

	rows, err := db.QueryContext(queryCtx, query)
	if err != nil {
		return fail(Classify(dialect, err))
	}
	defer rows.Close()

	out := QueryOutcome{Success: true, Category: profiles.CategoryOK}
	if rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return fail(Classify(dialect, err))
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fail(Classify(dialect, err))
		}
		if len(values) > 0 {
			out.Scalar = formatValue(values[0])
			out.HasScalar = true
		}
	}
	if err := rows.Err(); err != nil {
		return fail(Classify(dialect, err))
	}

	out.Message = "Query executed successfully"
	out.Elapsed = r.now().Sub(start)
	return out
}

// connect resolves the password, opens a handle and pings it within the
// connection timeout.
func (r *Runner) connect(ctx context.Context, dialect Dialect, p profiles.Profile) (*sql.DB, error) {
	password, err := r.password(p)
	if err != nil {
		return nil, err
	}

	db, err := r.open(dialect.DriverName(), dialect.DSN(p, password))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, p.ConnectTimeout())
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// secretError marks a password that could not be recovered before any
// connection attempt.
type secretError struct{ err error }

func (e secretError) Error() string { return e.err.Error() }
func (e secretError) Unwrap() error { return e.err }

func asSecretError(err error) (profiles.Category, bool) {
	if _, ok := err.(secretError); ok {
		return profiles.CategorySecretUnusable, true
	}
	return "", false
}

func (r *Runner) password(p profiles.Profile) (string, error) {
	if p.IntegratedSecurity || p.Password == "" || !p.PasswordEncrypted {
		return p.Password, nil
	}
	if r.cipher == nil {
		return "", secretError{fmt.Errorf("no cipher configured")}
	}
	plain, err := r.cipher.Decrypt(p.Password)
	if err != nil {
		return "", secretError{fmt.Errorf("repair the password of %q: %w", p.Name, err)}
	}
	return plain, nil
}

func (r *Runner) serverInfo(ctx context.Context, db *sql.DB, dialect Dialect, p profiles.Profile) (string, string) {
	queryCtx, cancel := context.WithTimeout(ctx, p.QueryTimeout())
	defer cancel()

	var version, database sql.NullString
	if err := db.QueryRowContext(queryCtx, dialect.ServerInfoQuery()).Scan(&version, &database); err != nil {
		r.log.Debugf("Server info for %q unavailable: %v", p.Name, err)
		return "", ""
	}
	return firstLine(version.String), database.String
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
