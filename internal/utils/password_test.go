package utils

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash equals plain password")
	}
	if !VerifyPassword(hash, "s3cret-pass") {
		t.Fatal("correct password rejected")
	}
	if VerifyPassword(hash, "wrong-pass") {
		t.Fatal("wrong password accepted")
	}
}
