package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword хэширует пароль bcrypt
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// isLegacyEncoding старые записи хранят пароль в base64, не в bcrypt
func isLegacyEncoding(stored string) bool {
	return !strings.HasPrefix(stored, "$2")
}

// CheckPassword сверяет пароль с сохранённым значением.
// legacy=true значит запись в старом base64 формате и её стоит перехэшировать.
func CheckPassword(stored, password string) (ok bool, legacy bool) {
	if isLegacyEncoding(stored) {
		decoded, err := base64.StdEncoding.DecodeString(stored)
		if err != nil {
			return false, true
		}
		return subtle.ConstantTimeCompare(decoded, []byte(password)) == 1, true
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
}
