package profiles

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kerrors "github.com/heinergc/sqlconn/internal/errors"
)

// Provider names the database engine a profile connects to.
type Provider string

const (
	ProviderSQLServer Provider = "sqlserver"
	ProviderPostgres  Provider = "postgres"
)

// DefaultTimeoutSeconds applies when a profile leaves a timeout unset.
const DefaultTimeoutSeconds = 30

// Profile is one stored set of connection parameters.
type Profile struct {
	ID                     string       `json:"Id"`
	Name                   string       `json:"Name"`
	Provider               Provider     `json:"Provider,omitempty"`
	Server                 string       `json:"Server"`
	Database               string       `json:"Database"`
	Username               string       `json:"Username"`
	Password               string       `json:"Password"`
	PasswordEncrypted      bool         `json:"IsPasswordEncrypted"`
	IntegratedSecurity     bool         `json:"IntegratedSecurity"`
	ConnectionTimeout      int          `json:"ConnectionTimeout"`
	CommandTimeout         int          `json:"CommandTimeout"`
	TrustServerCertificate bool         `json:"TrustServerCertificate"`
	CreatedAt              time.Time    `json:"CreatedAt"`
	LastTested             *time.Time   `json:"LastTested"`
	LastTestResult         *TestOutcome `json:"LastTestResult"`
}

// EffectiveProvider returns the provider, defaulting to SQL Server.
func (p Profile) EffectiveProvider() Provider {
	if p.Provider == "" {
		return ProviderSQLServer
	}
	return Provider(strings.ToLower(string(p.Provider)))
}

// UsesSQLAuth reports whether the profile authenticates with a username and
// password.
func (p Profile) UsesSQLAuth() bool {
	return !p.IntegratedSecurity
}

// AuthLabel is the short authentication description shown in listings.
func (p Profile) AuthLabel() string {
	if p.IntegratedSecurity {
		return "Integrated"
	}
	return "SQL"
}

func (p Profile) ConnectTimeout() time.Duration {
	return seconds(p.ConnectionTimeout)
}

func (p Profile) QueryTimeout() time.Duration {
	return seconds(p.CommandTimeout)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		n = DefaultTimeoutSeconds
	}
	return time.Duration(n) * time.Second
}

// Validate checks the fields an operator must supply.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", kerrors.ErrInvalidProfile)
	}
	if strings.TrimSpace(p.Server) == "" {
		return fmt.Errorf("%w: server is required", kerrors.ErrInvalidProfile)
	}
	if p.UsesSQLAuth() && strings.TrimSpace(p.Username) == "" {
		return fmt.Errorf("%w: username is required for SQL authentication", kerrors.ErrInvalidProfile)
	}
	if p.ConnectionTimeout < 0 || p.CommandTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", kerrors.ErrInvalidProfile)
	}
	switch p.EffectiveProvider() {
	case ProviderSQLServer, ProviderPostgres:
	default:
		return fmt.Errorf("%w: %q", kerrors.ErrUnknownProvider, p.Provider)
	}
	return nil
}

// Clone returns a copy that shares no pointers with p.
func (p Profile) Clone() Profile {
	c := p
	if p.LastTested != nil {
		t := *p.LastTested
		c.LastTested = &t
	}
	if p.LastTestResult != nil {
		o := *p.LastTestResult
		c.LastTestResult = &o
	}
	return c
}

// UnmarshalJSON accepts the timestamp layouts written by older tools, which
// may omit the zone offset.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	aux := struct {
		*plain
		CreatedAt  string  `json:"CreatedAt"`
		LastTested *string `json:"LastTested"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	created, err := parseTimestamp(aux.CreatedAt)
	if err != nil {
		return fmt.Errorf("CreatedAt: %w", err)
	}
	p.CreatedAt = created

	p.LastTested = nil
	if aux.LastTested != nil && *aux.LastTested != "" {
		tested, err := parseTimestamp(*aux.LastTested)
		if err != nil {
			return fmt.Errorf("LastTested: %w", err)
		}
		p.LastTested = &tested
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
