package redis

import "fmt"

const (
	// KeyPrefixSnapshot is the prefix for snapshot keys
	KeyPrefixSnapshot = "appvis:snapshot:"
	// KeyLastSnapshot holds the last successful snapshot
	KeyLastSnapshot = "appvis:snapshot:last"
	// KeySnapshotHistory is the list of snapshot IDs, newest first
	KeySnapshotHistory = "appvis:snapshots"
)

// SnapshotKey returns the Redis key for a snapshot by ID
func SnapshotKey(id string) string {
	return KeyPrefixSnapshot + id
}

// ExtractSnapshotID extracts the snapshot ID from a Redis key
func ExtractSnapshotID(key string) (string, error) {
	if len(key) <= len(KeyPrefixSnapshot) || key[:len(KeyPrefixSnapshot)] != KeyPrefixSnapshot {
		return "", fmt.Errorf("invalid snapshot key: %s", key)
	}
	return key[len(KeyPrefixSnapshot):], nil
}
