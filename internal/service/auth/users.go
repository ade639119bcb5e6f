// internal/service/auth/users.go
package auth

import (
	"fmt"
	"os"
	"strings"

	"kunden-service/internal/domain/auth"

	"gopkg.in/yaml.v3"
)

// credentialsFile mirrors config.yaml:
//
//	credentials:
//	  usernames:
//	    jsmith:
//	      name: John Smith
//	      email: js@example.com
//	      password: $2b$12$...
type credentialsFile struct {
	Credentials struct {
		Usernames map[string]struct {
			Name     string `yaml:"name"`
			Email    string `yaml:"email"`
			Password string `yaml:"password"`
		} `yaml:"usernames"`
	} `yaml:"credentials"`
}

// LoadUsers reads the operator list. Every entry needs a bcrypt hash.
func LoadUsers(path string) (map[string]auth.User, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	return ParseUsers(b)
}

func ParseUsers(b []byte) (map[string]auth.User, error) {
	var f credentialsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}

	users := make(map[string]auth.User, len(f.Credentials.Usernames))
	for username, u := range f.Credentials.Usernames {
		if !strings.HasPrefix(u.Password, "$2") {
			return nil, fmt.Errorf("user %q: password must be a bcrypt hash", username)
		}
		name := u.Name
		if name == "" {
			name = username
		}
		users[username] = auth.User{
			Username:     username,
			Name:         name,
			Email:        u.Email,
			PasswordHash: u.Password,
		}
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("users file defines no credentials")
	}
	return users, nil
}
