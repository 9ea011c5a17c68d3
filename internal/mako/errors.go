package mako

import "errors"

var (
	// ErrInvalidChannel indicates a channel whose key or iv has the wrong
	// length. Such a channel fails closed: no operation against it succeeds.
	ErrInvalidChannel = errors.New("invalid cipher channel")

	// ErrEmptyPayload indicates an input with no Base64 content at all.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrBadCiphertext indicates Base64 that decodes to nothing usable.
	ErrBadCiphertext = errors.New("malformed ciphertext")

	// ErrBadPadding indicates invalid PKCS#7 padding after decryption.
	ErrBadPadding = errors.New("invalid padding")

	// ErrBadPlaintext indicates decryption produced no valid UTF-8 text.
	ErrBadPlaintext = errors.New("plaintext is not valid UTF-8")
)
