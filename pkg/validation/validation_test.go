package validation

import "testing"

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"USER@EXAMPLE.COM", true},
		{"", false},
		{"no-at-sign", false},
		{"user@", false},
		{"@example.com", false},
		{"user@example", false},
	}

	for _, tt := range tests {
		if got := ValidateEmail(tt.email); got != tt.expected {
			t.Errorf("ValidateEmail(%q) = %v, expected %v", tt.email, got, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		expected bool
	}{
		{"Valid1pass!", true},
		{"Short1!", false},
		{"nouppercase1!", false},
		{"NOLOWERCASE1!", false},
		{"NoNumbers!!", false},
		{"NoSpecial11", false},
	}

	for _, tt := range tests {
		if got := ValidatePassword(tt.password); got != tt.expected {
			t.Errorf("ValidatePassword(%q) = %v, expected %v", tt.password, got, tt.expected)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		expected bool
	}{
		{"site_admin", true},
		{"a-b-c", true},
		{"ab", false},
		{"has space", false},
		{"bad!char", false},
	}

	for _, tt := range tests {
		if got := ValidateUsername(tt.username); got != tt.expected {
			t.Errorf("ValidateUsername(%q) = %v, expected %v", tt.username, got, tt.expected)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"photo.jpg", "photo.jpg"},
		{"  photo.jpg  ", "photo.jpg"},
		{"../../etc/passwd", "passwd"},
		{"dir/sub/photo.jpg", "photo.jpg"},
		{"dir\\sub\\photo.jpg", "photo.jpg"},
		{"bad\x00name.jpg", "badname.jpg"},
		{"tab\tname.jpg", "tabname.jpg"},
		{".", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.input); got != tt.expected {
			t.Errorf("SanitizeFilename(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
