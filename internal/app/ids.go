package app

import "github.com/google/uuid"

func newID() string { return uuid.NewString() }

// ValidID reports whether id has the shape of a session or player id.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
