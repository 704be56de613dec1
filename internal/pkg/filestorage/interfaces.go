package filestorage

import "mime/multipart"

// FileStorage stores uploaded files and returns the path the API serves them under.
type FileStorage interface {
	// SaveFile stores fileHeader under subPath and returns its public path.
	SaveFile(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// DeleteFile removes a file previously returned by SaveFile. Missing files are not an error.
	DeleteFile(publicPath string) error
}
