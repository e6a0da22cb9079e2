package port

// FileWalker resolves build arguments to the documents to ingest.
type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
	Expand(args []string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}
