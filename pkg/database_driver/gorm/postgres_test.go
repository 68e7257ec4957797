package gorm

import "testing"

func TestWithSSLMode(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "postgres://u:p@host/db", want: "postgres://u:p@host/db?sslmode=require"},
		{url: "postgres://u:p@host/db?connect_timeout=5", want: "postgres://u:p@host/db?connect_timeout=5&sslmode=require"},
		{url: "postgres://u:p@host/db?sslmode=disable", want: "postgres://u:p@host/db?sslmode=disable"},
	}

	for _, tt := range tests {
		if got := withSSLMode(tt.url); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}

func TestConnect_RequiresSettings(t *testing.T) {
	// Act
	_, urlErr := ConnectToPostgreSQLURL("")
	_, hostErr := ConnectToPostgreSQL("", "", "", "", "", false)

	// Assert
	if urlErr == nil {
		t.Error("Expected error for empty url")
	}
	if hostErr == nil {
		t.Error("Expected error for empty host settings")
	}
}
