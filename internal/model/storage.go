package model

import "context"

// UploadProgress is one progress report from a remote upload. Sizes and speed
// are kept as the human-readable strings the uploader printed.
type UploadProgress struct {
	Percent  int
	Speed    string
	Uploaded string
	Total    string
}

// UploadRequest names a finished output file and the remote directory it goes to.
type UploadRequest struct {
	LocalPath string
	RemoteDir string
}

// StorageHooks are optional callbacks fired during an upload.
type StorageHooks struct {
	OnProgress          func(UploadProgress)
	OnComplete          func()
	OnDeleteAfterUpload func(localPath string)
}

// StorageProvider copies finished outputs to remote storage.
type StorageProvider interface {
	Upload(ctx context.Context, cfg *Config, req UploadRequest, hooks StorageHooks) error
	PathExists(ctx context.Context, cfg *Config, remotePath string) (bool, error)
}
