package service

import "testing"

func TestIsValidUsername(t *testing.T) {
	valid := []string{"bob", "alice_42", "ABC", "a_b_c_d_e_f_g_h_i_j"}
	for _, username := range valid {
		if !IsValidUsername(username) {
			t.Errorf("expected %q to be valid", username)
		}
	}

	invalid := []string{"", "ab", "this_username_is_way_too_long", "with space", "dash-ed", "émile", "semi;colon"}
	for _, username := range invalid {
		if IsValidUsername(username) {
			t.Errorf("expected %q to be invalid", username)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@x.com", "user.name+tag@example.co.uk", "under_score@domain.org", "  padded@example.com  "}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}

	invalid := []string{"", "plainaddress", "@no-local.com", "no-domain@", "no-tld@domain", "two@@example.com"}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestIsValidEmailStripsControlCharacters(t *testing.T) {
	if !IsValidEmail("user@example.com\x00") {
		t.Fatalf("control characters should be stripped before matching")
	}
	if !IsValidEmail("user@example.com\t\n") {
		t.Fatalf("control characters should be stripped before matching")
	}
	if IsValidEmail("\a\x00") {
		t.Fatalf("expected control-only input to be invalid")
	}
}
