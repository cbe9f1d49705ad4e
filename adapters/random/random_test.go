package random_test

import (
	"regexp"
	"testing"

	"github.com/artpar/hoops/adapters/random"
)

var hexOnly = regexp.MustCompile(`^[0-9a-f]*$`)

func TestReal_String(t *testing.T) {
	for _, n := range []int{1, 16, 31, 40} {
		s, err := random.Real{}.String(n)
		if err != nil {
			t.Fatalf("String(%d) failed: %v", n, err)
		}
		if len(s) != n {
			t.Errorf("len(String(%d)) = %d", n, len(s))
		}
		if !hexOnly.MatchString(s) {
			t.Errorf("String(%d) = %q, not hex", n, s)
		}
	}
}

func TestNonceAndSecret(t *testing.T) {
	r := random.Real{}

	a, _ := random.Nonce(r)
	b, _ := random.Nonce(r)
	if len(a) != 32 || a == b {
		t.Errorf("Nonce() = %q, %q", a, b)
	}

	s, _ := random.Secret(r)
	if len(s) != 40 {
		t.Errorf("len(Secret()) = %d, want 40", len(s))
	}
}

func TestFake_Deterministic(t *testing.T) {
	f := &random.Fake{}
	first, _ := f.String(4)
	second, _ := f.String(4)

	if first != "0102" {
		t.Errorf("first = %q, want 0102", first)
	}
	if second != "0203" {
		t.Errorf("second = %q, want 0203", second)
	}
}
