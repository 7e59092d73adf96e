// Package auth signs the browser profile cookie.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformed    = errors.New("invalid cookie format")
	ErrBadSignature = errors.New("invalid signature")
)

// Signer produces values of the form "value|signature", both base64url.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("cookie secret is empty")
	}
	return &Signer{secret: []byte(secret)}, nil
}

func (s *Signer) mac(value string) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(value))
	return m.Sum(nil)
}

// Sign returns the signed form of value.
func (s *Signer) Sign(value string) string {
	return fmt.Sprintf("%s|%s",
		base64.URLEncoding.EncodeToString([]byte(value)),
		base64.URLEncoding.EncodeToString(s.mac(value)))
}

// Verify returns the original value if signed carries a valid signature.
func (s *Signer) Verify(signed string) (string, error) {
	encValue, encSig, ok := strings.Cut(signed, "|")
	if !ok || strings.Contains(encSig, "|") {
		return "", ErrMalformed
	}

	raw, err := base64.URLEncoding.DecodeString(encValue)
	if err != nil {
		return "", fmt.Errorf("%w: value encoding", ErrMalformed)
	}
	sig, err := base64.URLEncoding.DecodeString(encSig)
	if err != nil {
		return "", fmt.Errorf("%w: signature encoding", ErrMalformed)
	}

	value := string(raw)
	if !hmac.Equal(sig, s.mac(value)) {
		return "", ErrBadSignature
	}
	return value, nil
}
