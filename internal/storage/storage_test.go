package storage

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

func TestNewLocator(t *testing.T) {
	locator := newLocator(".Docx")
	if !strings.HasPrefix(locator, prefix+"/") || !strings.HasSuffix(locator, ".docx") {
		t.Fatalf("unexpected locator %q", locator)
	}
	if err := validateLocator(locator); err != nil {
		t.Fatalf("generated locator must validate, got %v", err)
	}
	if Name(locator) != strings.TrimPrefix(locator, prefix+"/") {
		t.Fatalf("unexpected name %q", Name(locator))
	}

	if got := newLocator(".thisisaverylongext"); strings.Contains(Name(got), ".") {
		t.Fatalf("expected long extension to be dropped, got %q", got)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"no such key", &types.NoSuchKey{}, true},
		{"not found", fmt.Errorf("head: %w", &types.NotFound{}), true},
		{"generic 404 code", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain error", errors.New("network down"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
