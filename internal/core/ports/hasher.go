package ports

// Hasher defines the interface for computing file content hashes.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// ComputeFileHash returns the hex encoded content hash and the size of the file at path.
	ComputeFileHash(path string) (string, int64, error)
}
