// Package secure provides field-level encryption for genetic uploads.
//
// Keys are derived with PBKDF2-HMAC-SHA256 from the configured secret and a
// fixed salt, then used as Fernet keys. The fixed salt is kept so that data
// written by earlier deployments stays decryptable.
package secure

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keySalt       = "genetic_data_salt"
	keyIterations = 100000
	keyLength     = 32
)

// Tokens carry a timestamp but are never expired here.
const tokenTTL = 100 * 365 * 24 * time.Hour

var ErrMissingSecret = errors.New("secret key is required for field encryption")

// DecryptionError is returned when a token cannot be verified or decrypted.
type DecryptionError struct {
	Reason string
}

func (e *DecryptionError) Error() string {
	return "decryption failed: " + e.Reason
}

type Encryptor struct {
	key *fernet.Key
}

// NewEncryptor derives the encryption key from secret.
func NewEncryptor(secret string) (*Encryptor, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	derived := pbkdf2.Key([]byte(secret), []byte(keySalt), keyIterations, keyLength, sha256.New)
	key := new(fernet.Key)
	copy(key[:], derived)

	return &Encryptor{key: key}, nil
}

// EncryptBytes returns a Fernet token for data.
func (e *Encryptor) EncryptBytes(data []byte) ([]byte, error) {
	token, err := fernet.EncryptAndSign(data, e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt data: %w", err)
	}
	return token, nil
}

// DecryptBytes verifies and decrypts a token produced by EncryptBytes.
func (e *Encryptor) DecryptBytes(token []byte) ([]byte, error) {
	if len(token) == 0 {
		return nil, &DecryptionError{Reason: "empty token"}
	}
	data := fernet.VerifyAndDecrypt(token, tokenTTL, []*fernet.Key{e.key})
	if data == nil {
		return nil, &DecryptionError{Reason: "invalid token or key"}
	}
	return data, nil
}

// EncryptText encrypts text and wraps the token in URL-safe base64.
// Empty text is returned unchanged.
func (e *Encryptor) EncryptText(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	token, err := e.EncryptBytes([]byte(text))
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(token), nil
}

// DecryptText reverses EncryptText. Input that cannot be decrypted is
// returned as-is.
func (e *Encryptor) DecryptText(value string) string {
	if value == "" {
		return ""
	}
	token, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return value
	}
	data, err := e.DecryptBytes(token)
	if err != nil {
		return value
	}
	return string(data)
}

// EncryptJSON serializes v and encrypts it as text.
func (e *Encryptor) EncryptJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode json: %w", err)
	}
	return e.EncryptText(string(data))
}

// DecryptJSON decrypts value and decodes it as JSON. When the plaintext is
// not JSON the plaintext string itself is returned.
func (e *Encryptor) DecryptJSON(value string) any {
	text := e.DecryptText(value)
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return text
	}
	return decoded
}

// DecodeJSON decrypts value into dst.
func (e *Encryptor) DecodeJSON(value string, dst any) error {
	if err := json.Unmarshal([]byte(e.DecryptText(value)), dst); err != nil {
		return fmt.Errorf("failed to decode encrypted json: %w", err)
	}
	return nil
}
