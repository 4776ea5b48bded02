package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvApiKeyID     = "APCA_API_KEY_ID"
	EnvApiSecretKey = "APCA_API_SECRET_KEY"
)

// ErrMissingCredentials is returned by LoadCredentials when the key id or the secret is not set.
var ErrMissingCredentials = errors.New("missing API credentials")

// Credentials is the key id and secret pair used to authenticate on the streams.
type Credentials struct {
	KeyID     string
	SecretKey string
}

func (c Credentials) String() string {
	return "Credentials{KeyID: " + c.KeyID + ", SecretKey: [redacted]}"
}

func (c Credentials) GoString() string {
	return c.String()
}

// LoadCredentials reads the credentials from the environment. Values missing from the
// environment are looked up in the given dotenv files (".env" if none are given), the
// first file defining a key wins. Missing files are ignored and the process environment
// is left untouched.
func LoadCredentials(files ...string) (Credentials, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	fileEnv := map[string]string{}
	for _, f := range files {
		env, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Credentials{}, fmt.Errorf("read dotenv %s: %w", f, err)
		}
		for k, v := range env {
			if _, ok := fileEnv[k]; !ok {
				fileEnv[k] = v
			}
		}
	}

	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileEnv[key]
	}

	creds := Credentials{
		KeyID:     lookup(EnvApiKeyID),
		SecretKey: lookup(EnvApiSecretKey),
	}
	if creds.KeyID == "" || creds.SecretKey == "" {
		return creds, ErrMissingCredentials
	}
	return creds, nil
}
