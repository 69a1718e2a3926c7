package secrets

import (
	"errors"
	"testing"

	kerrors "github.com/heinergc/sqlconn/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBox(t *testing.T, phrase string) *Box {
	t.Helper()
	box, err := NewBox(PhraseKeySource(phrase))
	require.NoError(t, err)
	return box
}

func fixedMachine(host, user string) MachineKeySource {
	return MachineKeySource{
		Hostname: func() (string, error) { return host, nil },
		Username: func() (string, error) { return user, nil },
	}
}

func TestBoxRoundTrip(t *testing.T) {
	box := newTestBox(t, "test-host"+"operator"+ApplicationSalt)

	for _, plaintext := range []string{
		"Abc123!",
		"a",
		"exactly16bytes!!",
		"with spaces and tabs\t",
		"contraseña✓",
		"a much longer password that spans several AES blocks of input data",
	} {
		t.Run(plaintext, func(t *testing.T) {
			ciphertext, err := box.Encrypt(plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, plaintext, ciphertext)

			decrypted, err := box.Decrypt(ciphertext)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted)
		})
	}
}

func TestBoxEmptyInput(t *testing.T) {
	box := newTestBox(t, "phrase")

	out, err := box.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = box.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBoxIsDeterministic(t *testing.T) {
	box := newTestBox(t, "phrase")

	first, err := box.Encrypt("Abc123!")
	require.NoError(t, err)
	second, err := box.Encrypt("Abc123!")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBoxCiphertextLooksLikeCiphertext(t *testing.T) {
	box := newTestBox(t, "phrase")

	ciphertext, err := box.Encrypt("x")
	require.NoError(t, err)
	assert.Len(t, ciphertext, 24)
	assert.True(t, box.IsProbablyCiphertext(ciphertext))
}

func TestBoxDecryptMalformed(t *testing.T) {
	box := newTestBox(t, "phrase")

	tests := []struct {
		name  string
		input string
	}{
		{"NotBase64", "Abc123!"},
		{"BadPadding", "QUJD===="},
		{"ShortBlock", "QUJD"},
		{"SeventeenBytes", "QUJDREVGR0hJSktMTU5PUFE="},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := box.Decrypt(tc.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, kerrors.ErrDecryptFailed))
			assert.Empty(t, out, "decrypt must never fall back to its input")
		})
	}
}

func TestBoxDecryptWithOtherMachineKey(t *testing.T) {
	here, err := NewBox(fixedMachine("HOST-A", "alice"))
	require.NoError(t, err)
	there, err := NewBox(fixedMachine("HOST-B", "alice"))
	require.NoError(t, err)

	ciphertext, err := here.Encrypt("Abc123!")
	require.NoError(t, err)

	out, err := there.Decrypt(ciphertext)
	if err != nil {
		assert.ErrorIs(t, err, kerrors.ErrDecryptFailed)
		assert.Empty(t, out)
	}
	assert.NotEqual(t, "Abc123!", out)
}

func TestMachineKeySourceMatchesPhrase(t *testing.T) {
	machine, err := NewBox(fixedMachine("WS01", "heiner"))
	require.NoError(t, err)
	phrase := newTestBox(t, "WS01heiner"+ApplicationSalt)

	a, err := machine.Encrypt("secret")
	require.NoError(t, err)
	b, err := phrase.Encrypt("secret")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMachineKeySourceErrors(t *testing.T) {
	src := MachineKeySource{
		Hostname: func() (string, error) { return "", errors.New("no hostname") },
		Username: func() (string, error) { return "user", nil },
	}

	box, err := NewBox(src)
	require.Error(t, err)
	assert.Nil(t, box)
	assert.ErrorIs(t, err, kerrors.ErrKeyDerivation)

	src = MachineKeySource{
		Hostname: func() (string, error) { return "host", nil },
		Username: func() (string, error) { return "", errors.New("no user") },
	}
	_, err = NewBox(src)
	assert.ErrorIs(t, err, kerrors.ErrKeyDerivation)
}

func TestPhraseKeySourceEmpty(t *testing.T) {
	_, err := NewBox(PhraseKeySource(""))
	assert.ErrorIs(t, err, kerrors.ErrKeyDerivation)
}

type badKeySource struct{}

func (badKeySource) KeyMaterial() ([]byte, []byte, error) {
	return []byte("short"), make([]byte, 16), nil
}

func TestNewBoxRejectsWrongKeySize(t *testing.T) {
	_, err := NewBox(badKeySource{})
	assert.ErrorIs(t, err, kerrors.ErrKeyDerivation)
}

func TestNilBox(t *testing.T) {
	var box *Box

	out, err := box.Encrypt("secret")
	assert.ErrorIs(t, err, kerrors.ErrEncryptFailed)
	assert.Empty(t, out)

	out, err = box.Decrypt("QUJDREVGR0hJSktMTU5PUA==")
	assert.ErrorIs(t, err, kerrors.ErrDecryptFailed)
	assert.Empty(t, out)
}

func TestDeriveKeySizes(t *testing.T) {
	key, iv := DeriveKey("base")
	assert.Len(t, key, 32)
	assert.Len(t, iv, 16)

	otherKey, otherIV := DeriveKey("base2")
	assert.NotEqual(t, key, otherKey)
	assert.NotEqual(t, iv, otherIV)
}

func TestPKCS7Unpad(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		ok   bool
	}{
		{"FullBlockOfPadding", append(make([]byte, 0), repeat(16, 16)...), true},
		{"OneByte", append(repeat('a', 15), 1), true},
		{"ZeroPad", append(repeat('a', 15), 0), false},
		{"TooLarge", append(repeat('a', 15), 17), false},
		{"Inconsistent", append(append(repeat('a', 13), 2, 3), 3), false},
		{"WrongLength", []byte{1}, false},
		{"Empty", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := pkcs7Unpad(tc.data, 16)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
