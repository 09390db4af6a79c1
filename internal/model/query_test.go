package model

import (
	"errors"
	"testing"
)

func TestNormalizeQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain term", input: "Go", want: "Go"},
		{name: "surrounding whitespace is trimmed", input: "  Alan Turing \n", want: "Alan Turing"},
		{name: "inner whitespace is kept", input: "New  York", want: "New  York"},
		{name: "empty string", input: "", wantErr: ErrEmptyQuery},
		{name: "whitespace only", input: " \t\n ", wantErr: ErrEmptyQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeQuery(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
