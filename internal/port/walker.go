package port

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path     string
	RelPath  string // slash-separated, relative to the walk root
	Category string // first directory under the root
	ModTime  int64
	Size     int64
}
