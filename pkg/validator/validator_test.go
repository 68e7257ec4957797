package validator

import (
	"strings"
	"testing"
)

type sample struct {
	Token string `validate:"required"`
	Size  int    `validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	// Arrange
	v := New()

	// Act
	okErr := v.ValidateStruct(sample{Token: "x"})
	badErr := v.ValidateStruct(sample{Size: -1})

	// Assert
	if okErr != nil {
		t.Errorf("Expected no error, got %v", okErr)
	}
	if badErr == nil {
		t.Fatal("Expected validation error")
	}
	msg := badErr.Error()
	if !strings.Contains(msg, "sample.Token") || !strings.Contains(msg, `"gte=0"`) {
		t.Errorf("Expected both field errors in message, got %s", msg)
	}
}
