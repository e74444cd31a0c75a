package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain integer", input: "12", want: 1200},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "one decimal", input: "0.5", want: 50},
		{name: "rounds half up", input: "0.125", want: 13},
		{name: "rounds down below half", input: "0.124", want: 12},
		{name: "leading dot", input: ".99", want: 99},
		{name: "whitespace trimmed", input: " 7.00 ", want: 700},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "zero decimal", input: "0.00", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "plus sign", input: "+5", wantErr: true},
		{name: "letters", input: "12a", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseDecimalToCents(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 100}).Validate(); err != nil {
		t.Fatalf("positive amount should validate: %v", err)
	}
	if err := (Money{}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount error = %v, want ErrInvalidAmount", err)
	}
	if err := (Money{Cents: -1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative amount error = %v, want ErrInvalidAmount", err)
	}
}

func TestDivRound(t *testing.T) {
	tests := []struct {
		cents int64
		n     int64
		want  int64
	}{
		{500000, 13, 38462},
		{100, 3, 33},
		{200, 3, 67},
		{100, 2, 50},
		{99, 2, 50},
		{-100, 3, -33},
	}
	for _, tt := range tests {
		if got := divRound(tt.cents, tt.n); got != tt.want {
			t.Errorf("divRound(%d, %d) = %d, want %d", tt.cents, tt.n, got, tt.want)
		}
	}
}
