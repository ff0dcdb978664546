package components

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/relloyd/eltpipe/aws/s3"
	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/logger"
)

type CopyFilesToS3Config struct {
	Log       logger.Logger   `errorTxt:"logger" mandatory:"yes"`
	Name      string          `errorTxt:"step name" mandatory:"yes"`
	SourceDir string          `errorTxt:"source directory" mandatory:"yes"` // directory containing FileNames.
	FileNames []string        `errorTxt:"file names" mandatory:"yes"`
	KeyPrefix string          // added to each S3 key after the bucket prefix e.g. the pipeline run id.
	Client    s3.BufferPutter `errorTxt:"S3 client" mandatory:"yes"`
}

// CopyFilesToS3 uploads each of the files in SourceDir to S3 and returns the number copied.
// Missing files are logged and skipped.
func CopyFilesToS3(ctx context.Context, cfg *CopyFilesToS3Config) (copied int, err error) {
	if err = helper.ValidateStructIsPopulated(cfg); err != nil {
		return 0, err
	}
	cfg.Log.Info(cfg.Name, " is running")
	for _, fileName := range cfg.FileNames {
		if err = ctx.Err(); err != nil {
			return copied, err
		}
		fileFullPathName := filepath.Join(cfg.SourceDir, fileName)
		ok, err := copyFileToS3(ctx, cfg, fileFullPathName, path.Join(cfg.KeyPrefix, fileName))
		if err != nil {
			return copied, err
		}
		if ok {
			copied++
		}
	}
	cfg.Log.Info(cfg.Name, " copied ", copied, " files to S3")
	return copied, nil
}

func copyFileToS3(ctx context.Context, cfg *CopyFilesToS3Config, fileFullPathName string, key string) (bool, error) {
	f, err := os.Open(fileFullPathName) // File implements io.ReadSeeker
	if os.IsNotExist(err) {
		cfg.Log.Info(cfg.Name, " no file found at '", fileFullPathName, "' - skipping.")
		return false, nil
	} else if err != nil {
		return false, err
	}
	defer f.Close()
	cfg.Log.Info(cfg.Name, " copying file '", fileFullPathName, "' to S3 key '", key, "'")
	if err = cfg.Client.BufferPut(ctx, key, f); err != nil {
		return false, err
	}
	return true, nil
}
