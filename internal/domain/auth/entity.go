// internal/domain/auth/entity.go
package auth

// User is one operator allowed to sign in, loaded from the credentials file.
type User struct {
	Username     string
	Name         string
	Email        string
	PasswordHash string
}
