package probe

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"os"
	"regexp"
	"syscall"
	"testing"
	"time"

	logger "github.com/heinergc/sqlconn/internal/logging"
	"github.com/heinergc/sqlconn/internal/profiles"
	"github.com/heinergc/sqlconn/internal/secrets"

	"github.com/DATA-DOG/go-sqlmock"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// stepClock advances by step on every reading.
func stepClock(step time.Duration) func() time.Time {
	t := epoch
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

type openCall struct {
	driver string
	dsn    string
}

// mockOpener hands out one sqlmock handle and records how it was opened.
func mockOpener(t *testing.T) (OpenFunc, sqlmock.Sqlmock, *[]openCall) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	calls := &[]openCall{}
	open := func(driver, dsn string) (*sql.DB, error) {
		*calls = append(*calls, openCall{driver: driver, dsn: dsn})
		return db, nil
	}
	return open, mock, calls
}

func testBox(t *testing.T) *secrets.Box {
	t.Helper()
	box, err := secrets.NewBox(secrets.PhraseKeySource("probe-tests"))
	require.NoError(t, err)
	return box
}

func sqlProfile(t *testing.T, box *secrets.Box) profiles.Profile {
	t.Helper()
	ciphertext, err := box.Encrypt("Abc123!")
	require.NoError(t, err)
	return profiles.Profile{
		ID:                     "p1",
		Name:                   "Local",
		Server:                 "localhost",
		Database:               "Ventas",
		Username:               "sa",
		Password:               ciphertext,
		PasswordEncrypted:      true,
		ConnectionTimeout:      5,
		CommandTimeout:         5,
		TrustServerCertificate: true,
	}
}

func newTestRunner(t *testing.T, box *secrets.Box, open OpenFunc) *Runner {
	return NewRunner(box, WithOpener(open), WithClock(stepClock(250*time.Millisecond)), WithLogger(logger.Logger{}))
}

func TestTestSuccess(t *testing.T) {
	box := testBox(t)
	open, mock, calls := mockOpener(t)

	mock.ExpectPing()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT @@VERSION, DB_NAME()")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "db"}).
			AddRow("Microsoft SQL Server 2022 (RTM) - 16.0.1000.6 (X64)\n\tOct  8 2022\n", "Ventas"))

	outcome := newTestRunner(t, box, open).Test(context.Background(), sqlProfile(t, box))

	assert.True(t, outcome.IsSuccessful)
	assert.Equal(t, profiles.CategoryOK, outcome.Category)
	assert.Equal(t, "Microsoft SQL Server 2022 (RTM) - 16.0.1000.6 (X64)", outcome.ServerVersion)
	assert.Equal(t, "Ventas", outcome.DatabaseName)
	assert.Equal(t, 250*time.Millisecond, outcome.Elapsed())
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, *calls, 1)
	assert.Equal(t, "sqlserver", (*calls)[0].driver)
	assert.Contains(t, (*calls)[0].dsn, "password={Abc123!}")
	assert.Contains(t, (*calls)[0].dsn, "database={Ventas}")
}

func TestTestServerInfoIsBestEffort(t *testing.T) {
	box := testBox(t)
	open, mock, _ := mockOpener(t)

	mock.ExpectPing()
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("permission denied"))

	outcome := newTestRunner(t, box, open).Test(context.Background(), sqlProfile(t, box))

	assert.True(t, outcome.IsSuccessful)
	assert.Empty(t, outcome.ServerVersion)
	assert.Empty(t, outcome.DatabaseName)
}

func TestTestAuthFailureIgnoresMessageText(t *testing.T) {
	box := testBox(t)

	for _, msg := range []string{
		"Login failed for user 'sa'.",
		"",
		"Server is in script upgrade mode.",
	} {
		t.Run(msg, func(t *testing.T) {
			open, mock, _ := mockOpener(t)
			mock.ExpectPing().WillReturnError(mssql.Error{Number: 18456, Message: msg})

			outcome := newTestRunner(t, box, open).Test(context.Background(), sqlProfile(t, box))

			assert.False(t, outcome.IsSuccessful)
			assert.Equal(t, profiles.CategoryAuthFailed, outcome.Category)
			assert.Equal(t, 18456, outcome.ErrorCode)
			assert.Greater(t, outcome.Elapsed(), time.Duration(0))
		})
	}
}

func TestTestUnreachableHost(t *testing.T) {
	box := testBox(t)
	open, mock, _ := mockOpener(t)

	mock.ExpectPing().WillReturnError(&net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: &net.DNSError{Err: "no such host", Name: "nohost.invalid", IsNotFound: true},
	})

	p := sqlProfile(t, box)
	p.Server = "nohost.invalid"
	outcome := newTestRunner(t, box, open).Test(context.Background(), p)

	assert.False(t, outcome.IsSuccessful)
	assert.Equal(t, profiles.CategoryServerUnreachable, outcome.Category)
	assert.Equal(t, "Server unreachable", outcome.Message)
	assert.Greater(t, outcome.Elapsed(), time.Duration(0))
}

func TestTestCorruptSecretNeverConnects(t *testing.T) {
	box := testBox(t)
	open, _, calls := mockOpener(t)

	p := sqlProfile(t, box)
	p.Password = "QUJDREVGR0hJSktMTU5PUFE="
	outcome := newTestRunner(t, box, open).Test(context.Background(), p)

	assert.False(t, outcome.IsSuccessful)
	assert.Equal(t, profiles.CategorySecretUnusable, outcome.Category)
	assert.Empty(t, *calls)
}

func TestTestIntegratedSendsNoCredentials(t *testing.T) {
	box := testBox(t)
	open, mock, calls := mockOpener(t)

	mock.ExpectPing()
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"v", "d"}).AddRow("v", "d"))

	p := sqlProfile(t, box)
	p.IntegratedSecurity = true
	p.Password = ""
	p.PasswordEncrypted = false
	outcome := newTestRunner(t, box, open).Test(context.Background(), p)

	assert.True(t, outcome.IsSuccessful)
	require.Len(t, *calls, 1)
	assert.Contains(t, (*calls)[0].dsn, "integrated security={true}")
	assert.NotContains(t, (*calls)[0].dsn, "user id")
	assert.NotContains(t, (*calls)[0].dsn, "password")
}

func TestTestOpenError(t *testing.T) {
	box := testBox(t)
	open := func(string, string) (*sql.DB, error) {
		return nil, errors.New("invalid connection string")
	}

	outcome := newTestRunner(t, box, open).Test(context.Background(), sqlProfile(t, box))

	assert.False(t, outcome.IsSuccessful)
	assert.Equal(t, profiles.CategoryUnexpected, outcome.Category)
	assert.Equal(t, "Unexpected error: invalid connection string", outcome.Message)
}

func TestTestUnknownProvider(t *testing.T) {
	box := testBox(t)
	open, _, calls := mockOpener(t)

	p := sqlProfile(t, box)
	p.Provider = "oracle"
	outcome := newTestRunner(t, box, open).Test(context.Background(), p)

	assert.False(t, outcome.IsSuccessful)
	assert.Equal(t, profiles.CategoryUnexpected, outcome.Category)
	assert.Empty(t, *calls)
}

func TestTestPostgres(t *testing.T) {
	box := testBox(t)
	open, mock, calls := mockOpener(t)

	mock.ExpectPing()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version(), current_database()")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "current_database"}).
			AddRow("PostgreSQL 16.2 on x86_64-pc-linux-gnu", "app"))

	p := sqlProfile(t, box)
	p.Provider = profiles.ProviderPostgres
	outcome := newTestRunner(t, box, open).Test(context.Background(), p)

	assert.True(t, outcome.IsSuccessful)
	assert.Equal(t, "PostgreSQL 16.2 on x86_64-pc-linux-gnu", outcome.ServerVersion)
	require.Len(t, *calls, 1)
	assert.Equal(t, "pgx", (*calls)[0].driver)
}

func TestListDatabases(t *testing.T) {
	box := testBox(t)
	open, mock, calls := mockOpener(t)

	mock.ExpectPing()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM sys.databases WHERE state = 0 ORDER BY name")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("master").AddRow("model").AddRow("Ventas"))

	names := newTestRunner(t, box, open).ListDatabases(context.Background(), sqlProfile(t, box))

	assert.Equal(t, []string{"master", "model", "Ventas"}, names)
	require.Len(t, *calls, 1)
	assert.Contains(t, (*calls)[0].dsn, "database={master}")
	assert.Contains(t, (*calls)[0].dsn, "password={Abc123!}")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDatabasesFailureIsEmpty(t *testing.T) {
	box := testBox(t)

	t.Run("PingFails", func(t *testing.T) {
		open, mock, _ := mockOpener(t)
		mock.ExpectPing().WillReturnError(mssql.Error{Number: 2, Message: "server not found"})

		names := newTestRunner(t, box, open).ListDatabases(context.Background(), sqlProfile(t, box))
		assert.NotNil(t, names)
		assert.Empty(t, names)
	})

	t.Run("QueryFails", func(t *testing.T) {
		open, mock, _ := mockOpener(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT name").WillReturnError(mssql.Error{Number: 229, Message: "permission denied"})

		names := newTestRunner(t, box, open).ListDatabases(context.Background(), sqlProfile(t, box))
		assert.NotNil(t, names)
		assert.Empty(t, names)
	})

	t.Run("OpenFails", func(t *testing.T) {
		open := func(string, string) (*sql.DB, error) { return nil, errors.New("bad dsn") }

		names := newTestRunner(t, box, open).ListDatabases(context.Background(), sqlProfile(t, box))
		assert.NotNil(t, names)
		assert.Empty(t, names)
	})
}

func TestRunQuery(t *testing.T) {
	box := testBox(t)
	open, mock, _ := mockOpener(t)

	mock.ExpectPing()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sys.tables")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	out := newTestRunner(t, box, open).RunQuery(context.Background(), sqlProfile(t, box), "SELECT COUNT(*) FROM sys.tables")

	assert.True(t, out.Success)
	assert.True(t, out.HasScalar)
	assert.Equal(t, "42", out.Scalar)
	assert.Greater(t, out.Elapsed, time.Duration(0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunQueryNoRows(t *testing.T) {
	box := testBox(t)
	open, mock, _ := mockOpener(t)

	mock.ExpectPing()
	mock.ExpectQuery("UPDATE").WillReturnRows(sqlmock.NewRows([]string{"x"}))

	out := newTestRunner(t, box, open).RunQuery(context.Background(), sqlProfile(t, box), "UPDATE t SET x = 1")

	assert.True(t, out.Success)
	assert.False(t, out.HasScalar)
}

func TestRunQueryFailure(t *testing.T) {
	box := testBox(t)
	open, mock, _ := mockOpener(t)

	mock.ExpectPing()
	mock.ExpectQuery("SELECT").WillReturnError(mssql.Error{Number: 208, Message: "Invalid object name 'nope'."})

	out := newTestRunner(t, box, open).RunQuery(context.Background(), sqlProfile(t, box), "SELECT * FROM nope")

	assert.False(t, out.Success)
	assert.Equal(t, profiles.CategoryProviderError, out.Category)
	assert.Equal(t, "Database error (208): Invalid object name 'nope'.", out.Message)
}

func TestRunQueryEmpty(t *testing.T) {
	box := testBox(t)
	open, _, calls := mockOpener(t)

	out := newTestRunner(t, box, open).RunQuery(context.Background(), sqlProfile(t, box), "   ")

	assert.False(t, out.Success)
	assert.Empty(t, *calls)
}

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name     string
		dialect  Dialect
		err      error
		category profiles.Category
		code     int
	}{
		{"SQLServerNotFound", SQLServer{}, mssql.Error{Number: 2}, profiles.CategoryServerUnreachable, 2},
		{"SQLServerLogin", SQLServer{}, mssql.Error{Number: 18456}, profiles.CategoryAuthFailed, 18456},
		{"SQLServerNamedPipes", SQLServer{}, mssql.Error{Number: 53}, profiles.CategoryNetworkUnreachable, 53},
		{"SQLServerNoDatabase", SQLServer{}, mssql.Error{Number: 4060}, profiles.CategoryDatabaseMissing, 4060},
		{"SQLServerOther", SQLServer{}, mssql.Error{Number: 1205}, profiles.CategoryProviderError, 1205},
		{"SQLServerPointer", SQLServer{}, &mssql.Error{Number: 18456}, profiles.CategoryAuthFailed, 18456},
		{"SQLServerLoginText", SQLServer{}, errors.New("login error: mssql: Login failed for user 'sa'."), profiles.CategoryAuthFailed, 18456},
		{"PostgresPassword", Postgres{}, &pgconnError28P01, profiles.CategoryAuthFailed, 0},
		{"PostgresNoDatabase", Postgres{}, &pgconnError3D000, profiles.CategoryDatabaseMissing, 0},
		{"PostgresOther", Postgres{}, &pgconnError42501, profiles.CategoryProviderError, 0},
		{"Refused", SQLServer{}, refused, profiles.CategoryNetworkUnreachable, 0},
		{"RefusedText", Postgres{}, errors.New("dial tcp 10.0.0.1:5432: connect: connection refused"), profiles.CategoryNetworkUnreachable, 0},
		{"DNS", Postgres{}, &net.DNSError{Err: "no such host", Name: "x", IsNotFound: true}, profiles.CategoryServerUnreachable, 0},
		{"Deadline", SQLServer{}, context.DeadlineExceeded, profiles.CategoryServerUnreachable, 0},
		{"Other", SQLServer{}, errors.New("boom"), profiles.CategoryUnexpected, 0},
		{"NilDialect", nil, errors.New("boom"), profiles.CategoryUnexpected, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			category, code, _ := Classify(tc.dialect, tc.err)
			assert.Equal(t, tc.category, category)
			assert.Equal(t, tc.code, code)
		})
	}
}
