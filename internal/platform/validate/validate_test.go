package validate

import (
	"testing"

	"github.com/google/uuid"
)

type sample struct {
	PatientID uuid.UUID `validate:"required"`
	Name      string    `validate:"required"`
}

func TestValidateRejectsZeroValues(t *testing.T) {
	v := NewEcho()

	if err := v.Validate(sample{}); err == nil {
		t.Fatal("expected error for zero-value struct")
	}
	if err := v.Validate(sample{PatientID: uuid.New()}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if err := v.Validate(sample{PatientID: uuid.New(), Name: "x"}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
}
