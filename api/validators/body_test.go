package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/brainonstrategy/bos-dashboard/pkg/errors"
)

type windowBody struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

func TestDecodeJSONBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"start_date":"2024-01-01","end_date":"2024-01-14"}`))

	var body windowBody
	if err := DecodeJSONBody(r, &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.StartDate != "2024-01-01" || body.EndDate != "2024-01-14" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSONBodyAllowsEmptyBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(""))

	var body windowBody
	if err := DecodeJSONBody(r, &body); err != nil {
		t.Fatalf("empty body should decode to the zero value: %v", err)
	}
	if body.StartDate != "" {
		t.Fatalf("expected zero value, got %+v", body)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"bogus":true}`))

	var body windowBody
	err := DecodeJSONBody(r, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyValidatesFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"start_date":"01/01/2024"}`))

	var body windowBody
	err := DecodeJSONBody(r, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %v", typed.Details())
	}
	if _, ok := details["start_date"]; !ok {
		t.Fatalf("expected start_date in details, got %v", details)
	}
}
