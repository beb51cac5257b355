package domain

import (
	"strings"
	"time"
)

// Complaint is the projection of a citizen complaint placed on the
// registration queue by the intake API. The queue layer treats it as opaque JSON.
type Complaint struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category,omitempty"`
	Department   string    `json:"department,omitempty"`
	Municipality string    `json:"municipality"`
	District     string    `json:"district,omitempty"`
	CitizenID    string    `json:"citizenId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (c *Complaint) Validate() error {
	if strings.TrimSpace(c.Title) == "" ||
		strings.TrimSpace(c.Description) == "" ||
		strings.TrimSpace(c.Municipality) == "" {
		return ErrInvalidComplaint
	}
	return nil
}

// User is the projection of a newly registered citizen or admin.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Municipality string    `json:"municipality,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrInvalidUser
	}
	if u.Email == "" && u.Phone == "" {
		return ErrInvalidUser
	}
	return nil
}
