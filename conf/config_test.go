package conf

import (
	"os"
	"testing"
)

func TestGetEnvFallsBackToEnvironment(t *testing.T) {
	const key = "CHDS_CONF_TEST_KEY"
	if err := os.Setenv(key, "from-environment"); err != nil {
		t.Fatal(err)
	}
	defer os.Unsetenv(key)

	if got := GetEnv(key); got != "from-environment" {
		t.Errorf("GetEnv() = %q, want %q", got, "from-environment")
	}
}

func TestSetEnvAndUnsetEnv(t *testing.T) {
	const key = "CHDS_CONF_TEST_SET"

	if err := SetEnv(t, key, "abc123"); err != nil {
		t.Fatal(err)
	}
	if got := GetEnv(key); got != "abc123" {
		t.Errorf("GetEnv() after SetEnv = %q, want %q", got, "abc123")
	}

	if err := UnsetEnv(t, key); err != nil {
		t.Fatal(err)
	}
	if got := GetEnv(key); got != "" {
		t.Errorf("GetEnv() after UnsetEnv = %q, want empty", got)
	}
}

func TestLookupEnv(t *testing.T) {
	const key = "CHDS_CONF_TEST_LOOKUP"

	if _, ok := LookupEnv(key); ok {
		t.Errorf("LookupEnv() reported %s as present before it was set", key)
	}

	if err := SetEnv(t, key, "present"); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = UnsetEnv(t, key) }()

	v, ok := LookupEnv(key)
	if !ok || v != "present" {
		t.Errorf("LookupEnv() = %q, %v; want %q, true", v, ok, "present")
	}
}
