package storage

type StorageOption func(*StorageEngine)

// WithSnapshotPath sets the default file used by SaveSnapshot and
// LoadSnapshot when called without an explicit path
func WithSnapshotPath(path string) StorageOption {
	return func(engine *StorageEngine) {
		engine.snapshotPath = path
	}
}
