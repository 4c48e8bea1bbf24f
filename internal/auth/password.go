package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// VerifyPassword проверяет пароль администратора.
//
// Если задан bcrypt-хеш, сравнение идёт только с ним. Открытый пароль
// используется лишь в dev окружении, когда хеша нет.
func VerifyPassword(password, hash, plain string) bool {
	if hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	if plain != "" {
		return subtle.ConstantTimeCompare([]byte(password), []byte(plain)) == 1
	}
	return false
}

// HashPassword возвращает bcrypt-хеш для ADMIN_PANEL_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
