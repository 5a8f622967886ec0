package secret

import (
	"os"
	"strings"
)

// EnvStore reads secrets from environment variables. The key
// "storage/password" maps to INVITOPIA_STORAGE_PASSWORD.
type EnvStore struct {
	Prefix string
}

func NewEnvStore() *EnvStore {
	return &EnvStore{Prefix: "INVITOPIA_"}
}

func (e *EnvStore) varName(key string) string {
	r := strings.NewReplacer("/", "_", "-", "_", ".", "_")
	return e.Prefix + strings.ToUpper(r.Replace(key))
}

func (e *EnvStore) Get(key string) ([]byte, error) {
	v, ok := os.LookupEnv(e.varName(key))
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

// Set only affects the current process.
func (e *EnvStore) Set(key string, value []byte) error {
	return os.Setenv(e.varName(key), string(value))
}

func (e *EnvStore) Delete(key string) error {
	return os.Unsetenv(e.varName(key))
}
