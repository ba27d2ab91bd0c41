package entity

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https URL", url: "https://example.com/post", wantErr: false},
		{name: "valid http URL", url: "http://example.com/post", wantErr: false},
		{name: "valid URL with port", url: "https://example.com:8080/post", wantErr: false},
		{name: "valid URL with query", url: "https://www.youtube.com/watch?v=abc", wantErr: false},
		{name: "loopback is allowed here", url: "http://127.0.0.1:8080/", wantErr: false},
		{name: "empty URL", url: "", wantErr: true},
		{name: "invalid scheme - ftp", url: "ftp://example.com/file", wantErr: true},
		{name: "invalid scheme - file", url: "file:///etc/passwd", wantErr: true},
		{name: "missing host", url: "https:///path", wantErr: true},
		{name: "relative URL", url: "/just/a/path", wantErr: true},
		{name: "too long", url: "https://example.com/" + strings.Repeat("a", maxURLLength), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ValidateURL(%q) error should wrap ErrInvalidInput, got %v", tt.url, err)
			}
		})
	}
}
