package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. Optional fields use pointers; a nil
// DateOfBirth means unknown, not a zero date.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	Email       string     `db:"email" json:"email"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Active      bool       `db:"active" json:"active"`
	Note        *string    `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
