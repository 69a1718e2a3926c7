package utils

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompterAsk(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  Local  \nlast"), &out)

	got, err := p.Ask("Name: ")
	require.NoError(t, err)
	assert.Equal(t, "Local", got)
	assert.Equal(t, "Name: ", out.String())

	got, err = p.Ask("Server: ")
	require.NoError(t, err)
	assert.Equal(t, "last", got, "partial final line is returned")

	_, err = p.Ask("Database: ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPrompterAskDefault(t *testing.T) {
	p := NewPrompter(strings.NewReader("\nnew-host\n"), io.Discard)

	got, err := p.AskDefault("Server", "localhost")
	require.NoError(t, err)
	assert.Equal(t, "localhost", got)

	got, err = p.AskDefault("Server", "localhost")
	require.NoError(t, err)
	assert.Equal(t, "new-host", got)
}

func TestPrompterConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"YesShort", "y\n", false, true},
		{"YesLong", "YES\n", false, true},
		{"No", "n\n", true, false},
		{"EmptyUsesDefaultFalse", "\n", false, false},
		{"EmptyUsesDefaultTrue", "\n", true, true},
		{"Garbage", "maybe\n", true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPrompter(strings.NewReader(tc.input), io.Discard)
			got, err := p.Confirm("Continue?", tc.def)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPrompterAskInt(t *testing.T) {
	p := NewPrompter(strings.NewReader("45\n\nabc\n-3\n"), io.Discard)

	for _, want := range []int{45, 30, 30, 30} {
		got, err := p.AskInt("Timeout: ", 30)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPrompterPasswordKeepsSpaces(t *testing.T) {
	p := NewPrompter(strings.NewReader(" pa ss \r\n"), io.Discard)

	got, err := p.Password("Password: ")
	require.NoError(t, err)
	assert.Equal(t, " pa ss ", got)
}

func TestGetUsernameAndHostname(t *testing.T) {
	name, err := GetUsername()
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.NotContains(t, name, `\`)

	host, err := GetHostname()
	require.NoError(t, err)
	assert.NotEmpty(t, host)
}
