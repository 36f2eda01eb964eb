package normalize

import "testing"

func TestNormalizers(t *testing.T) {
	tests := []struct {
		fn    string
		apply func(string) string
		in    string
		want  string
	}{
		{"Email", Email, "  Ada@Example.COM ", "ada@example.com"},
		{"Email", Email, "\t\n", ""},
		{"Name", Name, "  Ada   Lovelace ", "Ada Lovelace"},
		{"Name", Name, "GRACE\tHOPPER", "GRACE HOPPER"},
		{"Role", Role, " Admin ", "admin"},
		{"Role", Role, "MEMBER", "member"},
		{"QueryParam", QueryParam, "  Weekly Report ", "Weekly Report"},
		{"Filter", Filter, " In Progress ", "In Progress"},
		{"Filter", Filter, "All", ""},
		{"Filter", Filter, "  ALL  ", ""},
		{"Filter", Filter, "allowed", "allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.fn+"/"+tt.in, func(t *testing.T) {
			if got := tt.apply(tt.in); got != tt.want {
				t.Errorf("%s(%q): got %q, want %q", tt.fn, tt.in, got, tt.want)
			}
		})
	}
}
