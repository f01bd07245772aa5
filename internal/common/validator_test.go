package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

type limitQuery struct {
	Limit int `validate:"min=1,max=500"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		limit   int
		wantErr bool
	}{
		{name: "lower bound", limit: 1},
		{name: "upper bound", limit: 500},
		{name: "zero", limit: 0, wantErr: true},
		{name: "too large", limit: 501, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&limitQuery{Limit: tt.limit})
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStruct(%d) error = %v, wantErr %v", tt.limit, err, tt.wantErr)
			}
		})
	}
}

func TestGenericEchoValidator_ReturnsBadRequest(t *testing.T) {
	v := &GenericEchoValidator{}

	if err := v.Validate(&limitQuery{Limit: 10}); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}

	err := v.Validate(&limitQuery{Limit: 0})
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, httpErr.Code)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff8000")
	if err != nil {
		t.Fatalf("ParseColor error: %v", err)
	}
	r, g, b, a := c.RGBA()
	if r>>8 != 0xff || g>>8 != 0x80 || b>>8 != 0x00 || a>>8 != 0xff {
		t.Fatalf("unexpected color components: %d %d %d %d", r>>8, g>>8, b>>8, a>>8)
	}

	for _, bad := range []string{"", "ff8000", "#gg0000", "#12345", "red"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
