package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1:6166", cfg.ListenAddr())
	assert.Equal(t, BackendMemory, cfg.Backend)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cliplinkd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: 0.0.0.0
port: 7001
backend: etcd
etcd_endpoints:
  - etcd-a:2379
  - etcd-b:2379
log_level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:7001", cfg.ListenAddr())
	assert.Equal(t, BackendEtcd, cfg.Backend)
	assert.Equal(t, []string{"etcd-a:2379", "etcd-b:2379"}, cfg.EtcdEndpoints)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAddr, "10.0.0.5")
	t.Setenv(EnvPort, "9000")
	t.Setenv(EnvBackend, BackendEtcd)
	t.Setenv(EnvEtcdEndpoints, "one:2379,two:2379")
	t.Setenv(EnvLogLevel, "warn")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "10.0.0.5:9000", cfg.ListenAddr())
	assert.Equal(t, BackendEtcd, cfg.Backend)
	assert.Equal(t, []string{"one:2379", "two:2379"}, cfg.EtcdEndpoints)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestApplyEnvBadPort(t *testing.T) {
	t.Setenv(EnvPort, "not-a-port")

	assert.Error(t, Default().ApplyEnv())
}

func TestApplyEnvValidation(t *testing.T) {
	t.Setenv(EnvBackend, "postgres")
	assert.Error(t, Default().ApplyEnv())

	t.Setenv(EnvBackend, BackendEtcd)
	// etcd backend without endpoints is rejected.
	assert.Error(t, Default().ApplyEnv())
}
