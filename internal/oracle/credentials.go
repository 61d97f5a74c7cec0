package oracle

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Credential is one API key and the id it is reported under.
type Credential struct {
	ID     string
	APIKey string
}

// CredentialPool hands out credentials round-robin under a single lock.
type CredentialPool struct {
	mu    sync.Mutex
	creds []Credential
	next  int
}

// NewCredentialPool requires at least one credential with a non-empty key.
func NewCredentialPool(creds []Credential) (*CredentialPool, error) {
	if len(creds) == 0 {
		return nil, ErrNoCredentials
	}
	for i, cred := range creds {
		if strings.TrimSpace(cred.APIKey) == "" {
			return nil, fmt.Errorf("credential %d (%s): api key is empty", i, cred.ID)
		}
	}
	out := make([]Credential, len(creds))
	copy(out, creds)
	return &CredentialPool{creds: out}, nil
}

// CredentialsFromEnv resolves each id to the key stored in its environment variable.
func CredentialsFromEnv(ids, envVars []string) ([]Credential, error) {
	if len(ids) != len(envVars) {
		return nil, fmt.Errorf("credential ids and env vars differ in length")
	}
	creds := make([]Credential, 0, len(ids))
	for i, envVar := range envVars {
		key := strings.TrimSpace(os.Getenv(envVar))
		if key == "" {
			return nil, fmt.Errorf("credential %s: %s is not set", ids[i], envVar)
		}
		creds = append(creds, Credential{ID: ids[i], APIKey: key})
	}
	return creds, nil
}

// AcquireNext returns the next credential in rotation.
func (p *CredentialPool) AcquireNext() Credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	cred := p.creds[p.next]
	p.next = (p.next + 1) % len(p.creds)
	return cred
}

// Len returns the number of credentials.
func (p *CredentialPool) Len() int {
	return len(p.creds)
}
