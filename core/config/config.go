// Package config holds the runtime configuration of the node. Values are
// resolved through viper with environment variable binding, so every key
// can be overridden via its environment variable of the same name.
package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultSnapshotSyncBatchSize is how many subscriptions a single
	// snapshot sync batch reads from the Reader contract.
	DefaultSnapshotSyncBatchSize uint64 = 200
	// DefaultSnapshotSyncSleep is the pause between snapshot sync batches,
	// in seconds. Keeps the node under RPC provider rate limits.
	DefaultSnapshotSyncSleep = 1.0

	// RuntimeDocker is the RUNTIME value signalling a containerized
	// deployment, switching container host resolution to the Docker
	// gateway alias.
	RuntimeDocker = "docker"
)

// Config exposes node configuration to the rest of the codebase.
type Config struct {
	viper *viper.Viper
}

// NewConfig returns the node configuration with defaults set and
// environment variables bound.
func NewConfig() *Config {
	v := viper.New()
	v.SetDefault("TRAIL_HEAD_BLOCKS", 1)
	v.SetDefault("SNAPSHOT_SYNC_SLEEP", DefaultSnapshotSyncSleep)
	v.SetDefault("SNAPSHOT_SYNC_BATCH_SIZE", DefaultSnapshotSyncBatchSize)
	v.SetDefault("RUNTIME", "")
	v.AutomaticEnv()
	return &Config{viper: v}
}

// Set overrides a configuration value. Only for use in tests.
func (c *Config) Set(name string, value interface{}) {
	c.viper.Set(name, value)
}

// TrailHeadBlocks is how many blocks the node trails the chain head by.
// All chain reads happen at head minus this margin, which protects sync
// state against reorganizations up to that depth.
func (c *Config) TrailHeadBlocks() uint64 {
	return c.viper.GetUint64("TRAIL_HEAD_BLOCKS")
}

// SnapshotSyncSleep is the pause between snapshot sync batches.
func (c *Config) SnapshotSyncSleep() time.Duration {
	return time.Duration(c.viper.GetFloat64("SNAPSHOT_SYNC_SLEEP") * float64(time.Second))
}

// SnapshotSyncBatchSize is how many subscriptions are read per snapshot
// sync batch.
func (c *Config) SnapshotSyncBatchSize() uint64 {
	return c.viper.GetUint64("SNAPSHOT_SYNC_BATCH_SIZE")
}

// Runtime describes the deployment environment, e.g. "docker".
func (c *Config) Runtime() string {
	return c.viper.GetString("RUNTIME")
}
