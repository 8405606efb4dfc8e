package crypto

import "github.com/google/uuid"

type IDGenerator interface {
	NewID() (string, error)
}

// UUIDGenerator emits time-ordered v7 UUIDs so account rows insert in index order.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
