package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"hostpanel/internal/conf"
)

var ErrEmptyCredentials = errors.New("username and password are required")

// NewUser creates a new user with hashed password and saves it to the config file
func NewUser(name string, password string) error {
	if name == "" || password == "" {
		return ErrEmptyCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	newConf := conf.Read()
	if newConf.Auth.Users == nil {
		newConf.Auth.Users = make(map[string]string)
	}
	newConf.Auth.Users[name] = string(hash)

	if err := conf.Write(newConf); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// VerifyPassword verifies a user's password against the stored hash
func VerifyPassword(name string, password string) bool {
	hashedPassword, exists := conf.GetUsers()[name]
	if !exists {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
