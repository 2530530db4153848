package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeKeyFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "keys")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}
	return path
}

func TestLoadKeyFileFirstKeyWhenNameEmpty(t *testing.T) {
	path := writeKeyFile(t, "# comment\nalpha.:hmac-sha256:c2VjcmV0\nbeta.:hmac-sha256:c2VjcmV0\n")

	key, err := loadKeyFile(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Name != "alpha." {
		t.Fatalf("expected first key alpha., got %s", key.Name)
	}
}

func TestLoadKeyFileSelectsByName(t *testing.T) {
	path := writeKeyFile(t, "alpha.:hmac-sha256:c2VjcmV0\nbeta.:hmac-sha384:c2VjcmV0\n")

	key, err := loadKeyFile(path, "beta.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Name != "beta." {
		t.Fatalf("expected beta., got %s", key.Name)
	}

	key, err = loadKeyFile(path, "beta")
	if err != nil {
		t.Fatalf("unexpected error resolving unqualified name: %v", err)
	}
	if key.Name != "beta." {
		t.Fatalf("expected beta. for unqualified lookup, got %s", key.Name)
	}
}

func TestLoadKeyFileNameNotFound(t *testing.T) {
	path := writeKeyFile(t, "alpha.:hmac-sha256:c2VjcmV0\n")

	if _, err := loadKeyFile(path, "missing."); err == nil {
		t.Fatal("expected an error for a key name absent from the file")
	}
}

func TestLoadKeyFileEmpty(t *testing.T) {
	path := writeKeyFile(t, "# nothing but comments\n\n")

	if _, err := loadKeyFile(path, ""); err == nil {
		t.Fatal("expected an error for a key file with no key lines")
	}
}

func TestResolveKeyInlineSpec(t *testing.T) {
	opts := &updateOptions{key: "alpha.:hmac-sha256:c2VjcmV0"}

	key, err := resolveKey(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Name != "alpha." {
		t.Fatalf("expected alpha., got %s", key.Name)
	}
}

func TestResolveKeyBareNameRequiresKeyFile(t *testing.T) {
	opts := &updateOptions{key: "alpha"}

	if _, err := resolveKey(opts); err == nil {
		t.Fatal("expected an error when --key names a key without --key-file")
	}
}

func TestResolveKeyBareNameLooksUpKeyFile(t *testing.T) {
	path := writeKeyFile(t, "alpha.:hmac-sha256:c2VjcmV0\nbeta.:hmac-sha256:c2VjcmV0\n")
	opts := &updateOptions{key: "beta.", keyFile: path}

	key, err := resolveKey(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Name != "beta." {
		t.Fatalf("expected beta., got %s", key.Name)
	}
}

func TestResolveKeyFileAloneUsesFirstKey(t *testing.T) {
	path := writeKeyFile(t, "alpha.:hmac-sha256:c2VjcmV0\n")
	opts := &updateOptions{keyFile: path}

	key, err := resolveKey(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key.Name != "alpha." {
		t.Fatalf("expected alpha., got %s", key.Name)
	}
}

func TestResolveKeyNeitherFlagSet(t *testing.T) {
	key, err := resolveKey(&updateOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != nil {
		t.Fatalf("expected nil key, got %v", key)
	}
}
