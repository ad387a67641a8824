package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"filippo.io/age"
	"golang.org/x/oauth2"
)

// Sealer encrypts OAuth tokens at rest with an age X25519 identity.
type Sealer struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// NewSealer parses an AGE-SECRET-KEY-1... identity. An empty string yields
// a fresh identity, so sealed tokens do not survive a restart.
func NewSealer(identity string) (*Sealer, error) {
	var (
		id  *age.X25519Identity
		err error
	)
	if identity == "" {
		id, err = age.GenerateX25519Identity()
	} else {
		id, err = age.ParseX25519Identity(identity)
	}
	if err != nil {
		return nil, fmt.Errorf("age identity: %w", err)
	}
	return &Sealer{identity: id, recipient: id.Recipient()}, nil
}

// GenerateIdentity returns a new encoded age identity for SESSION_AGE_IDENTITY.
func GenerateIdentity() (string, error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Sealer) Seal(tok *oauth2.Token) ([]byte, error) {
	plain, err := json.Marshal(tok)
	if err != nil {
		return nil, fmt.Errorf("marshal token: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.recipient)
	if err != nil {
		return nil, fmt.Errorf("age encrypt: %w", err)
	}
	if _, err := w.Write(plain); err != nil {
		return nil, fmt.Errorf("age write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("age close: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Sealer) Open(sealed []byte) (*oauth2.Token, error) {
	r, err := age.Decrypt(bytes.NewReader(sealed), s.identity)
	if err != nil {
		return nil, fmt.Errorf("age decrypt: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("age read: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(plain, &tok); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &tok, nil
}
