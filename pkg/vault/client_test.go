package vault

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kvServer answers the subset of the Vault HTTP API the client uses.
// Paths are keyed without the /v1/ prefix.
type kvServer struct {
	mu      sync.Mutex
	secrets map[string]interface{}
	reads   []string
	token   string
}

func (s *kvServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	path := strings.TrimPrefix(r.URL.Path, "/v1/")
	if path == "sys/health" {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"initialized": true,
			"sealed":      false,
			"standby":     false,
		})
		return
	}

	s.mu.Lock()
	s.reads = append(s.reads, path)
	s.token = r.Header.Get("X-Vault-Token")
	data, ok := s.secrets[path]
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[]}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func newKVServer(t *testing.T, secrets map[string]interface{}) (*kvServer, string) {
	t.Helper()
	s := &kvServer{secrets: secrets}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv.URL
}

func TestGetSecretsKVv2(t *testing.T) {
	s, addr := newKVServer(t, map[string]interface{}{
		"secret/data/summarypages": map[string]interface{}{
			"data":     map[string]interface{}{"condor.user": "vault-user"},
			"metadata": map[string]interface{}{"version": 3},
		},
	})

	c, err := NewClient(addr, "s.test")
	require.NoError(t, err)

	got, err := c.GetSecrets("secret/summarypages")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"condor.user": "vault-user"}, got)
	assert.Equal(t, []string{"secret/data/summarypages"}, s.reads)
	assert.Equal(t, "s.test", s.token)
}

func TestGetSecretsFallsBackToKVv1(t *testing.T) {
	s, addr := newKVServer(t, map[string]interface{}{
		"kv/summarypages": map[string]interface{}{"condor.scheduler": "schedd.example.org"},
	})

	c, err := NewClient(addr, "s.test")
	require.NoError(t, err)

	got, err := c.GetSecrets("kv/summarypages")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"condor.scheduler": "schedd.example.org"}, got)
	assert.Equal(t, []string{"kv/data/summarypages", "kv/summarypages"}, s.reads)
}

func TestGetSecretsMissing(t *testing.T) {
	_, addr := newKVServer(t, nil)

	c, err := NewClient(addr, "s.test")
	require.NoError(t, err)

	_, err = c.GetSecrets("secret/absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no secret found at path secret/absent")
}

func TestNewClientUnreachable(t *testing.T) {
	t.Setenv("VAULT_MAX_RETRIES", "0")
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, "s.test")
	require.Error(t, err)
}
