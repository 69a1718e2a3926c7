package utils

import (
	"os"
	"os/user"
	"strings"
)

// GetUsername returns the current username without any domain prefix.
func GetUsername() (string, error) {
	u, err := user.Current()
	if err != nil {
		if name := os.Getenv("USER"); name != "" {
			return name, nil
		}
		if name := os.Getenv("USERNAME"); name != "" {
			return name, nil
		}
		return "", err
	}
	name := u.Username
	// Windows reports DOMAIN\user.
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	return name, nil
}

// GetHostname returns the system hostname.
func GetHostname() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}
	return hostname, nil
}
