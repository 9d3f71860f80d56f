package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyPair represents an SSH key pair
type KeyPair struct {
	PrivateKey string // PEM-encoded OpenSSH private key
	PublicKey  string // authorized_keys line
}

// GenerateKeyPair creates a new ed25519 key pair in memory.
// comment is appended to the public key line when not empty.
func GenerateKeyPair(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to generate public key: %w", err)
	}

	publicKey := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub)))
	if comment != "" {
		publicKey += " " + comment
	}

	return &KeyPair{
		PrivateKey: string(pem.EncodeToMemory(block)),
		PublicKey:  publicKey,
	}, nil
}

// ValidatePublicKey checks that s is a single authorized_keys line
func ValidatePublicKey(s string) error {
	if _, _, _, rest, err := ssh.ParseAuthorizedKey([]byte(s)); err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	} else if len(strings.TrimSpace(string(rest))) > 0 {
		return fmt.Errorf("invalid public key: expected exactly one key")
	}
	return nil
}

// Fingerprint returns the SHA256 fingerprint of an authorized_keys line
func Fingerprint(publicKey string) (string, error) {
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(publicKey))
	if err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}
	return ssh.FingerprintSHA256(key), nil
}
