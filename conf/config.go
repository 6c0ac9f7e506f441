package conf

/*
   conf wraps viper to provide configuration for the CHDS applications.

   Locally, configuration is read from an env file if one is present at a
   known location; any key not found there falls back to the process
   environment. Deployed environments carry no env file and use the
   environment exclusively.

   Assumptions:
   1. The configuration file is an env file.
   2. Once loaded, configuration stays immutable for the lifetime of the
      process (tests being the exception, via SetEnv/UnsetEnv).
*/

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

// envVars holds the parsed configuration. Only reachable through GetEnv,
// LookupEnv, SetEnv and UnsetEnv.
var envVars viper.Viper

const (
	configGood    uint8 = 0
	configBad     uint8 = 1
	noConfigFound uint8 = 2
)

var state = configGood

func setup(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("local")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	// Viper is lazy, force the read and parse now.
	if err := v.ReadInConfig(); err != nil {
		state = configBad
	}
	return v
}

func init() {
	locations := []string{
		"/go/src/github.com/chittoor-drda/chds-app/shared_files/decrypted",
		"/etc/chds",
	}

	if found, loc := findEnv(locations); found {
		envVars = *setup(loc)
	} else {
		state = noConfigFound
	}
}

func findEnv(locations []string) (bool, string) {
	for _, loc := range locations {
		if _, err := os.Stat(loc + "/local.env"); err == nil {
			return true, loc
		}
	}
	return false, ""
}

// GetEnv retrieves the value stored for key. If it does not exist in the
// configuration file or the environment, the empty string is returned.
func GetEnv(key string) string {
	if state == configGood {
		value := envVars.GetString(key)
		if value == "" {
			if v, ok := os.LookupEnv(key); ok {
				// Cache in conf to avoid repeated OS lookups.
				_ = SetEnv(&testing.T{}, key, v)
				value = v
			}
		}
		return value
	}
	return os.Getenv(key)
}

// LookupEnv augments os.LookupEnv to consult the configuration file first.
func LookupEnv(key string) (string, bool) {
	if state == configGood {
		if value := envVars.Get(key); value != nil && value != "" {
			return value.(string), true
		}
		if v, ok := os.LookupEnv(key); ok {
			_ = SetEnv(&testing.T{}, key, v)
			return v, true
		}
		return "", false
	}
	return os.LookupEnv(key)
}

// SetEnv adds a key/value to the configuration. The *testing.T parameter is
// there to ensure callers knowingly use it in test scope only.
func SetEnv(protect *testing.T, key string, value string) error {
	if state == configGood {
		envVars.Set(key, value)
		return nil
	}
	return os.Setenv(key, value)
}

// UnsetEnv removes a variable from both the configuration and the
// environment. Test scope only, like SetEnv.
func UnsetEnv(protect *testing.T, key string) error {
	if state == configGood {
		envVars.Set(key, "")
	}
	return os.Unsetenv(key)
}
