package services

import (
	"github.com/dashkit-io/board-engine/pkg/crypto"
	"github.com/dashkit-io/board-engine/pkg/models"
)

// encryptSecretField replaces the plaintext api_key credential, when present,
// with its ciphertext. The map is mutated in place.
func encryptSecretField(cipher *crypto.SecretCipher, credentials map[string]any) error {
	raw, ok := credentials[models.CredentialAPIKeyField]
	if !ok {
		return nil
	}
	plaintext, ok := raw.(string)
	if !ok || plaintext == "" {
		return nil
	}
	encrypted, err := cipher.Encrypt(plaintext)
	if err != nil {
		return err
	}
	credentials[models.CredentialAPIKeyField] = encrypted
	return nil
}

// maskConnectionCredentials rewrites a connection's credentials for client
// consumption: the stored api_key ciphertext is dropped and replaced by the
// masked preview. The map is mutated in place. A nil connection is a no-op so
// callers can pass enrichment results straight through.
func maskConnectionCredentials(cipher *crypto.SecretCipher, conn *models.Connection) error {
	if conn == nil || conn.Credentials == nil {
		return nil
	}
	raw, ok := conn.Credentials[models.CredentialAPIKeyField]
	if !ok {
		return nil
	}
	encrypted, ok := raw.(string)
	if !ok {
		delete(conn.Credentials, models.CredentialAPIKeyField)
		return nil
	}
	preview, err := cipher.Preview(encrypted)
	if err != nil {
		return err
	}
	delete(conn.Credentials, models.CredentialAPIKeyField)
	conn.Credentials[models.CredentialAPIKeyPreview] = preview
	return nil
}
