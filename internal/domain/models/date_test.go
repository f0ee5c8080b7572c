package models

import (
	"encoding/json"
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-01-15", want: "2024-01-15"},
		{in: "2024-01-15T08:30:00Z", want: "2024-01-15"},
		{in: "2024-01-15 08:30:00", want: "2024-01-15"},
		{in: "2024-01-15garbage", wantErr: true},
		{in: "2024-01-150", wantErr: true},
		{in: "2024-13-01", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseDate(%q) = %s, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDate_UnmarshalJSONRejectsTrailingText(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2024-01-15garbage"`), &d); err == nil {
		t.Errorf("Unmarshal = %s, want error", d)
	}
	if err := json.Unmarshal([]byte(`null`), &d); err != nil || !d.IsZero() {
		t.Errorf("Unmarshal null = %s, %v", d, err)
	}
}
