package checksum

import "testing"

func TestSum(t *testing.T) {
	// Known SHA-256 of "hello".
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got := Sum([]byte("hello")); got != want {
		t.Errorf("Sum() = %q, want %q", got, want)
	}
}

func TestBuilderMatchesSum(t *testing.T) {
	b := NewBuilder()
	b.WriteString("hel")
	b.WriteString("lo")
	if got, want := b.Sum(), Sum([]byte("hello")); got != want {
		t.Errorf("Builder.Sum() = %q, want %q", got, want)
	}
}

func TestBuilderOrderSensitive(t *testing.T) {
	a := NewBuilder()
	a.WriteString("x\n")
	a.WriteString("y\n")
	b := NewBuilder()
	b.WriteString("y\n")
	b.WriteString("x\n")
	if a.Sum() == b.Sum() {
		t.Error("different write orders must produce different digests")
	}
}
