package account

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID generates a new time ordered account ID
func NewID() (ID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return ID{}, err
	}

	return ID{id}, nil
}

// ID represents an account ID
type ID struct {
	uuid.UUID
}

// ParseID parses account ID from string
func ParseID(id string) (ID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return ID{}, fmt.Errorf("%w: account id: %v", ErrInvalidArgument, err)
	}

	return ID{u}, nil
}

// IsZero reports whether the id was never assigned
func (id ID) IsZero() bool { return id.UUID == uuid.Nil }

// CustomerID references the account holder
type CustomerID struct {
	uuid.UUID
}

// NewCustomerID generates a new random customer ID
func NewCustomerID() CustomerID {
	return CustomerID{uuid.New()}
}

// ParseCustomerID parses customer ID from string
func ParseCustomerID(id string) (CustomerID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return CustomerID{}, fmt.Errorf("%w: customer id: %v", ErrInvalidArgument, err)
	}

	return CustomerID{u}, nil
}
