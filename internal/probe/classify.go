package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/heinergc/sqlconn/internal/profiles"
)

// Classify maps err to a stable category. Provider errors recognized by d
// win; network failures come next; everything else is unexpected.
func Classify(d Dialect, err error) (profiles.Category, int, string) {
	if d != nil {
		if category, code, detail, ok := d.Classify(err); ok {
			return category, code, detail
		}
	}
	if category, ok := classifyNetwork(err); ok {
		return category, 0, err.Error()
	}
	return profiles.CategoryUnexpected, 0, err.Error()
}

func classifyNetwork(err error) (profiles.Category, bool) {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return profiles.CategoryNetworkUnreachable, true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return profiles.CategoryServerUnreachable, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return profiles.CategoryServerUnreachable, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return profiles.CategoryServerUnreachable, true
	}

	// Some drivers flatten dial errors into text.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "network is unreachable"),
		strings.Contains(msg, "no route to host"):
		return profiles.CategoryNetworkUnreachable, true
	case strings.Contains(msg, "no such host"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "unable to open tcp connection"),
		strings.Contains(msg, "server name or address"):
		return profiles.CategoryServerUnreachable, true
	}
	return "", false
}
