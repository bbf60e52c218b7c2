package utils

import "golang.org/x/crypto/bcrypt"

// Secrets are account passwords and password-reset tokens; neither is stored in clear.
const secretCost = bcrypt.DefaultCost

// HashSecret returns the bcrypt hash stored in place of a password or reset token.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), secretCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// SecretMatches reports whether secret hashes to the stored hash.
func SecretMatches(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
