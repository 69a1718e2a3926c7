package profiles

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category is the stable classification of a connection test.
type Category string

const (
	CategoryOK                 Category = "ok"
	CategoryServerUnreachable  Category = "server_unreachable"
	CategoryAuthFailed         Category = "authentication_failed"
	CategoryNetworkUnreachable Category = "network_unreachable"
	CategoryDatabaseMissing    Category = "database_missing"
	CategoryProviderError      Category = "provider_error"
	CategorySecretUnusable     Category = "secret_unusable"
	CategoryUnexpected         Category = "unexpected_error"
)

// Label returns the operator-facing description of c.
func (c Category) Label() string {
	switch c {
	case CategoryOK:
		return "Connection successful"
	case CategoryServerUnreachable:
		return "Server unreachable"
	case CategoryAuthFailed:
		return "Authentication failed"
	case CategoryNetworkUnreachable:
		return "Network or port unreachable"
	case CategoryDatabaseMissing:
		return "Database does not exist or cannot be opened"
	case CategoryProviderError:
		return "Database error"
	case CategorySecretUnusable:
		return "Stored password cannot be decrypted"
	default:
		return "Unexpected error"
	}
}

// TestOutcome is the result of one connection test. Build it with NewSuccess
// or NewFailure and treat it as read-only afterwards.
type TestOutcome struct {
	IsSuccessful  bool      `json:"IsSuccessful"`
	Message       string    `json:"Message"`
	Category      Category  `json:"Category,omitempty"`
	ResponseTime  TimeSpan  `json:"ResponseTime"`
	TestedAt      time.Time `json:"TestedAt"`
	ServerVersion string    `json:"SqlServerVersion,omitempty"`
	DatabaseName  string    `json:"DatabaseName,omitempty"`
	ErrorCode     int       `json:"ErrorCode,omitempty"`
	ErrorDetail   string    `json:"ErrorDetail,omitempty"`
}

// NewSuccess builds a successful outcome. serverVersion and database may be
// empty when the server info query failed.
func NewSuccess(elapsed time.Duration, testedAt time.Time, serverVersion, database string) TestOutcome {
	return TestOutcome{
		IsSuccessful:  true,
		Message:       CategoryOK.Label(),
		Category:      CategoryOK,
		ResponseTime:  TimeSpan(elapsed),
		TestedAt:      testedAt,
		ServerVersion: serverVersion,
		DatabaseName:  database,
	}
}

// NewFailure builds a failed outcome. code is the provider error number, or
// zero when there is none.
func NewFailure(category Category, code int, detail string, elapsed time.Duration, testedAt time.Time) TestOutcome {
	return TestOutcome{
		IsSuccessful: false,
		Message:      failureMessage(category, code, detail),
		Category:     category,
		ResponseTime: TimeSpan(elapsed),
		TestedAt:     testedAt,
		ErrorCode:    code,
		ErrorDetail:  detail,
	}
}

func failureMessage(category Category, code int, detail string) string {
	switch category {
	case CategoryProviderError:
		if code == 0 && detail != "" {
			return category.Label() + ": " + detail
		}
		if detail == "" {
			return fmt.Sprintf("%s (%d)", category.Label(), code)
		}
		return fmt.Sprintf("%s (%d): %s", category.Label(), code, detail)
	case CategoryUnexpected, CategorySecretUnusable:
		if detail == "" {
			return category.Label()
		}
		return category.Label() + ": " + detail
	default:
		return category.Label()
	}
}

// Elapsed returns the measured latency.
func (o TestOutcome) Elapsed() time.Duration {
	return time.Duration(o.ResponseTime)
}

// UnmarshalJSON accepts TestedAt values without a zone offset.
func (o *TestOutcome) UnmarshalJSON(data []byte) error {
	type plain TestOutcome
	aux := struct {
		*plain
		TestedAt string `json:"TestedAt"`
	}{plain: (*plain)(o)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	at, err := parseTimestamp(aux.TestedAt)
	if err != nil {
		return fmt.Errorf("TestedAt: %w", err)
	}
	o.TestedAt = at
	return nil
}

// TimeSpan is a duration serialized as "[-][d.]hh:mm:ss[.fffffff]". A bare
// JSON number is read as milliseconds.
type TimeSpan time.Duration

func (ts TimeSpan) String() string {
	d := time.Duration(ts)
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}

	ticks := int64(d / 100)
	days := ticks / (24 * 3600 * 1e7)
	ticks -= days * 24 * 3600 * 1e7
	hours := ticks / (3600 * 1e7)
	ticks -= hours * 3600 * 1e7
	minutes := ticks / (60 * 1e7)
	ticks -= minutes * 60 * 1e7
	secs := ticks / 1e7
	frac := ticks - secs*1e7

	var b strings.Builder
	b.WriteString(sign)
	if days > 0 {
		fmt.Fprintf(&b, "%d.", days)
	}
	fmt.Fprintf(&b, "%02d:%02d:%02d", hours, minutes, secs)
	if frac > 0 {
		fmt.Fprintf(&b, ".%07d", frac)
	}
	return b.String()
}

func (ts TimeSpan) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

func (ts *TimeSpan) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		*ts = 0
		return nil
	}
	if !strings.HasPrefix(text, `"`) {
		ms, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("invalid time span %s", text)
		}
		*ts = TimeSpan(time.Duration(ms * float64(time.Millisecond)))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	d, err := ParseTimeSpan(s)
	if err != nil {
		return err
	}
	*ts = TimeSpan(d)
	return nil
}

// ParseTimeSpan parses "[-][d.]hh:mm:ss[.fffffff]".
func ParseTimeSpan(s string) (time.Duration, error) {
	orig := s
	bad := func() (time.Duration, error) {
		return 0, fmt.Errorf("invalid time span %q", orig)
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return bad()
	}

	var days int64
	hourPart := parts[0]
	if i := strings.Index(hourPart, "."); i >= 0 {
		d, err := strconv.ParseInt(hourPart[:i], 10, 64)
		if err != nil {
			return bad()
		}
		days = d
		hourPart = hourPart[i+1:]
	}

	hours, err := strconv.ParseInt(hourPart, 10, 64)
	if err != nil || hours > 23 {
		return bad()
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || minutes > 59 {
		return bad()
	}

	secPart, fracPart := parts[2], ""
	if i := strings.Index(secPart, "."); i >= 0 {
		secPart, fracPart = secPart[:i], secPart[i+1:]
	}
	secs, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil || secs > 59 {
		return bad()
	}

	var fracTicks int64
	if fracPart != "" {
		if len(fracPart) > 7 {
			return bad()
		}
		f, err := strconv.ParseInt(fracPart+strings.Repeat("0", 7-len(fracPart)), 10, 64)
		if err != nil {
			return bad()
		}
		fracTicks = f
	}

	total := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(secs)*time.Second +
		time.Duration(fracTicks)*100
	if neg {
		total = -total
	}
	return total, nil
}
