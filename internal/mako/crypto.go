// Package mako holds the portal's fixed cipher channels and the CBC
// transform used for its playlist and entitlement payloads.
package mako

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Portal endpoints. These are constants of the portal itself, not
// deployment configuration.
const (
	BaseURL        = "https://www.mako.co.il"
	IndexPath      = "/mako-vod-index"
	EntitlementURL = "https://mass.mako.co.il/ClicksStatistics/entitlementsServicesV2.jsp?et=egt"
)

// Channel is a named key/iv pair bound to one semantic purpose. The key
// must be exactly 24 bytes (AES-192) and the iv exactly 16; anything else
// makes every operation on the channel fail.
type Channel struct {
	ID  string
	key []byte
	iv  []byte
}

// The two channels the portal uses. The keys are the literal ASCII bytes
// below, not their Base64 decoding.
var (
	Playlist    = Channel{ID: "playlist", key: []byte("LTf7r/zM2VndHwP+4So6bw=="), iv: []byte("theExact16Chars=")}
	Entitlement = Channel{ID: "entitlement", key: []byte("YhnUaXMmltB6gd8p9SWleQ=="), iv: []byte("theExact16Chars=")}
)

// NewChannel builds a channel from explicit key material. Used by tests;
// production code uses the package-level channels.
func NewChannel(id string, key, iv []byte) Channel {
	return Channel{ID: id, key: key, iv: iv}
}

func (c Channel) check() error {
	if len(c.key) != 24 || len(c.iv) != aes.BlockSize {
		return fmt.Errorf("channel %q: %w", c.ID, ErrInvalidChannel)
	}
	return nil
}

// Decrypt decodes Base64 ciphertext from the portal and returns the UTF-8
// plaintext. The upstream transport interleaves stray bytes and line
// breaks into otherwise valid Base64, so every character outside the
// Base64 alphabet is stripped before decoding.
func Decrypt(c Channel, payload string) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}

	cleaned := sanitizeBase64(payload)
	if cleaned == "" {
		return "", fmt.Errorf("channel %q: %w", c.ID, ErrEmptyPayload)
	}

	raw, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return "", fmt.Errorf("channel %q: %w: %v", c.ID, ErrBadCiphertext, err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", fmt.Errorf("channel %q: %w: ciphertext length %d", c.ID, ErrBadCiphertext, len(raw))
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("channel %q: %w", c.ID, ErrInvalidChannel)
	}

	plain := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, c.iv).CryptBlocks(plain, raw)

	plain, err = pkcs7Unpad(plain)
	if err != nil {
		return "", fmt.Errorf("channel %q: %w", c.ID, err)
	}
	if len(plain) == 0 || !utf8.Valid(plain) {
		return "", fmt.Errorf("channel %q: %w", c.ID, ErrBadPlaintext)
	}

	return string(plain), nil
}

// Encrypt encrypts UTF-8 text and returns standard Base64 ciphertext.
func Encrypt(c Channel, plaintext string) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("channel %q: %w", c.ID, ErrInvalidChannel)
	}

	padded := pkcs7Pad([]byte(plaintext))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, c.iv).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// sanitizeBase64 strips every byte outside the Base64 alphabet.
func sanitizeBase64(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == '+', r == '/', r == '=':
			return r
		}
		return -1
	}, s)
}

func pkcs7Pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, ErrBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, ErrBadPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrBadPadding
		}
	}
	return data[:len(data)-n], nil
}
