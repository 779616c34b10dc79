// users.go
// Identity operations. The identity record is persisted verbatim in the
// snapshot and survives restarts until replaced; password hashes live in
// a separate keyspace so user objects can be returned as-is.

package db

import (
	"context"
	"fmt"
	"time"

	"farmtrace/models"
)

// CreateUser stores a new identity. Emails are unique.
func (s *FileStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.withWrite(ctx, func(snap *Snapshot) error {
		if _, exists := snap.Users[user.UserID]; exists {
			return fmt.Errorf("%w: user %s already exists", models.ErrValidation, user.UserID)
		}
		for _, u := range snap.Users {
			if u.Email == user.Email {
				return fmt.Errorf("%w: email already registered", models.ErrValidation)
			}
		}
		snap.Users[user.UserID] = user
		return nil
	})
}

// GetUser retrieves an identity by id.
func (s *FileStore) GetUser(userID string) (*models.User, error) {
	var out *models.User
	s.withRead(func(snap *Snapshot) error {
		if u, ok := snap.Users[userID]; ok {
			c := *u
			out = &c
		}
		return nil
	})
	if out == nil {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
	}
	return out, nil
}

// GetUserByEmail retrieves an identity by email.
func (s *FileStore) GetUserByEmail(email string) (*models.User, error) {
	var out *models.User
	s.withRead(func(snap *Snapshot) error {
		for _, u := range snap.Users {
			if u.Email == email {
				c := *u
				out = &c
				break
			}
		}
		return nil
	})
	if out == nil {
		return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, email)
	}
	return out, nil
}

// UpdateUser replaces an existing identity record.
func (s *FileStore) UpdateUser(ctx context.Context, user *models.User) error {
	return s.withWrite(ctx, func(snap *Snapshot) error {
		if _, ok := snap.Users[user.UserID]; !ok {
			return fmt.Errorf("%w: user %s", models.ErrNotFound, user.UserID)
		}
		snap.Users[user.UserID] = user
		return nil
	})
}

// ProfileUpdate carries the optional fields of a profile merge. Nil
// means "leave unchanged". The optional field set is closed, there is
// no open-ended metadata bag.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Location *string
}

// UpdateProfile merges the supplied fields into an existing identity and
// returns the updated record.
func (s *FileStore) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	var out *models.User
	err := s.withWrite(ctx, func(snap *Snapshot) error {
		u, ok := snap.Users[userID]
		if !ok {
			return fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
		}
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Email != nil {
			u.Email = *upd.Email
		}
		if upd.Location != nil {
			u.Location = *upd.Location
		}
		c := *u
		out = &c
		return nil
	})
	if err != nil {
		if out != nil {
			return out, err
		}
		return nil, err
	}
	return out, nil
}

// TouchLastLogin records a successful login.
func (s *FileStore) TouchLastLogin(ctx context.Context, userID string) error {
	return s.withWrite(ctx, func(snap *Snapshot) error {
		u, ok := snap.Users[userID]
		if !ok {
			return fmt.Errorf("%w: user %s", models.ErrNotFound, userID)
		}
		u.LastLogin = time.Now()
		return nil
	})
}

// StorePasswordHash stores a password hash for a user.
func (s *FileStore) StorePasswordHash(ctx context.Context, userID, passwordHash string) error {
	return s.withWrite(ctx, func(snap *Snapshot) error {
		snap.PasswordHashes[userID] = passwordHash
		return nil
	})
}

// GetPasswordHash retrieves a password hash for a user. Mock identities
// provisioned at login have none.
func (s *FileStore) GetPasswordHash(userID string) (string, error) {
	var hash string
	s.withRead(func(snap *Snapshot) error {
		hash = snap.PasswordHashes[userID]
		return nil
	})
	if hash == "" {
		return "", fmt.Errorf("%w: password hash for user %s", models.ErrNotFound, userID)
	}
	return hash, nil
}
