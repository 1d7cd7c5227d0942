package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"intraday-level-lab/internal/domain"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(symbol|level|side|entry_time_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	symbol string,
	level domain.LevelKind,
	side domain.Side,
	entryTimeMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		symbol,
		string(level),
		string(side),
		entryTimeMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeRunID computes a deterministic run_id for a named configuration
// over a named dataset.
// Formula: SHA256(dataset|config_name|start_ms|end_ms)
func ComputeRunID(dataset, configName string, startMs, endMs int64) string {
	data := fmt.Sprintf("%s|%s|%d|%d", dataset, configName, startMs, endMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
