package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"reforma/config"
)

// CurrentSchemaVersion is bumped whenever the bucket layout changes.
const CurrentSchemaVersion = 2

var keySchema = []byte("schema")

// SchemaInfo is the index's layout version and the hash of the settings it
// was built with.
type SchemaInfo struct {
	Version    int       `json:"version"`
	ConfigHash string    `json:"config_hash"`
	MigratedAt time.Time `json:"migrated_at,omitempty"`
}

// GetSchemaInfo returns the stored schema record. A fresh file reports version 0.
func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	info := &SchemaInfo{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketStats).Get(keySchema)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, info); err != nil {
			return fmt.Errorf("corrupt schema record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func (s *BoltStore) SetSchemaInfo(info *SchemaInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketStats).Put(keySchema, data)
	})
}

// ComputeConfigHash computes a hash of the settings that shape stored chunks.
// Source hashes alone cannot detect these changes, so a new hash forces a rebuild.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		MaxTokens        int    `json:"max_tokens"`
		OverlapTokens    int    `json:"overlap_tokens"`
		PreserveSections bool   `json:"preserve_sections"`
		EmbProvider      string `json:"emb_provider"`
		EmbModel         string `json:"emb_model"`
		EmbDimension     int    `json:"emb_dimension"`
	}{
		MaxTokens:        cfg.Chunking.MaxTokens,
		OverlapTokens:    cfg.Chunking.OverlapTokens,
		PreserveSections: cfg.Chunking.PreserveSections,
		EmbProvider:      cfg.Embedding.Provider,
		EmbModel:         cfg.Embedding.Model,
		EmbDimension:     cfg.Embedding.Dimension,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsMigration bool
	NeedsRebuild   bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

// CheckMigration checks if migration or rebuild is needed.
func (s *BoltStore) CheckMigration(cfg *config.Config) (*MigrationResult, error) {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}

	result := &MigrationResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	if info.Version == 0 {
		result.NeedsMigration = true
		result.Reason = "initializing schema version"
	} else if info.Version < CurrentSchemaVersion {
		result.NeedsMigration = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", info.Version, CurrentSchemaVersion)
	} else if info.Version > CurrentSchemaVersion {
		result.NeedsRebuild = true
		result.Reason = fmt.Sprintf("database created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
		return result, nil
	}

	newHash := ComputeConfigHash(cfg)
	if info.ConfigHash != "" && info.ConfigHash != newHash {
		result.NeedsRebuild = true
		result.Reason = "chunking or embedding configuration changed"
	}

	return result, nil
}

// Migrate performs any necessary schema migrations.
func (s *BoltStore) Migrate(cfg *config.Config) error {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return err
	}

	for v := info.Version; v < CurrentSchemaVersion; v++ {
		if err := s.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}

	return s.SetSchemaInfo(&SchemaInfo{
		Version:    CurrentSchemaVersion,
		ConfigHash: ComputeConfigHash(cfg),
		MigratedAt: s.now().UTC(),
	})
}

// runMigration runs a specific version migration.
func (s *BoltStore) runMigration(from, to int) error {
	switch to {
	case 2:
		// v2 indexes chunk keys per source.
		return s.db.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketSourceChunks)
			return err
		})
	}
	return nil
}

// Clear drops every stored source and chunk. Schema version and config hash
// survive so the rebuilt index is stamped correctly.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSources, bucketChunks, bucketSourceChunks} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// NeedsRebuild checks if the index needs a full rebuild due to config changes.
func (s *BoltStore) NeedsRebuild(cfg *config.Config) (bool, string, error) {
	result, err := s.CheckMigration(cfg)
	if err != nil {
		return false, "", err
	}
	return result.NeedsRebuild, result.Reason, nil
}
