package domain

import "testing"

func TestValidateID(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "Nexty~abc123", false},
		{"empty", "", true},
		{"missing prefix", "abc123", true},
		{"prefix only", "Nexty~", true},
		{"wrong case prefix", "nexty~abc", true},
		{"prefix mid-string", "xNexty~abc", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateID(tc.id)
			if tc.wantErr && err == nil {
				t.Errorf("ValidateID(%q) = nil, want error", tc.id)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidateID(%q) = %v, want nil", tc.id, err)
			}
		})
	}
}
