package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func env(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "graft.yaml", `
driver: postgresql
dsn: postgres://localhost/blocks
format: yaml
slow: 250ms
cache:
  redis: localhost:6379
  ttl: 5m
associations:
  - parent: {name: Block}
    child: {name: Item}
    junction: {name: BlockItem, composite: true}
`)
	cfg, err := loadConfig(path, env(nil))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.driverName())
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Slow)
	assert.Equal(t, CacheConfig{Redis: "localhost:6379", TTL: 5 * time.Minute}, cfg.Cache)
	require.Len(t, cfg.Associations, 1)
	assert.Equal(t, "blockItems", cfg.Associations[0].Name)
	assert.Equal(t, "block_items", cfg.Associations[0].Junction.Table)

	cfg, err = loadConfig(path, env(map[string]string{"GRAFT_DRIVER": "mysql", "GRAFT_DSN": "root@/blocks"}))
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.driverName())
	assert.Equal(t, "root@/blocks", cfg.DSN)
}

func TestLoadConfig_RedisTTL(t *testing.T) {
	const assoc = `
associations:
  - parent: {name: Block}
    child: {name: Item}
    junction: {name: BlockItem}
`
	cfg, err := loadConfig(writeFile(t, "graft.yaml", "dsn: x\ncache: {redis: \"localhost:6379\"}\n"+assoc), env(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultRedisTTL, cfg.Cache.TTL)

	// In-memory entries live only as long as the run.
	cfg, err = loadConfig(writeFile(t, "graft.yaml", "dsn: x\n"+assoc), env(nil))
	require.NoError(t, err)
	assert.Zero(t, cfg.Cache.TTL)
}

func TestLoadConfig_Errors(t *testing.T) {
	const assoc = `
associations:
  - parent: {name: Block}
    child: {name: Item}
    junction: {name: BlockItem}
`
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{name: "driver", content: "driver: oracle\ndsn: x\n" + assoc, want: `unknown driver "oracle"`},
		{name: "env driver", content: "dsn: x\n" + assoc, env: map[string]string{"GRAFT_DRIVER": "db2"}, want: `unknown driver "db2"`},
		{name: "dsn", content: "driver: sqlite\n" + assoc, want: "dsn is required"},
		{name: "associations", content: "dsn: x\n", want: "no associations"},
		{name: "schema", content: "dsn: x\nassociations: [{parent: {name: A}, child: {name: B}, junction: {}}]", want: "junction name is required"},
		{name: "yaml", content: "dsn: [", want: "parse config"},
		{name: "ttl", content: "dsn: x\ncache: {redis: \"localhost:6379\", ttl: -1m}\n" + assoc, want: "negative cache ttl -1m0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeFile(t, "graft.yaml", tt.content), env(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), env(nil))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
