package components_test

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/relloyd/eltpipe/aws/s3/mocks"
	"github.com/relloyd/eltpipe/components"
	"github.com/relloyd/eltpipe/logger"
)

func TestCopyFilesToS3(t *testing.T) {
	log := logger.NewLogger("eltpipe", "info", true)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	projectDir := t.TempDir()
	targetDir := components.DbtTargetDir(projectDir)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		t.Fatal(err)
	}
	// Write two of the three artifacts so that one is skipped.
	for _, f := range []string{"run_results.json", "manifest.json"} {
		if err := ioutil.WriteFile(filepath.Join(targetDir, f), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	client := mocks.NewMockBufferPutter(ctrl)
	client.EXPECT().BufferPut(gomock.Any(), "guid1/run_results.json", gomock.Any()).Return(nil)
	client.EXPECT().BufferPut(gomock.Any(), "guid1/manifest.json", gomock.Any()).Return(nil)
	copied, err := components.CopyFilesToS3(context.Background(), &components.CopyFilesToS3Config{
		Log:       log,
		Name:      "copy-artifacts",
		SourceDir: targetDir,
		FileNames: components.Defaults.DbtArtifacts,
		KeyPrefix: "guid1",
		Client:    client,
	})
	if err != nil {
		t.Fatal(err)
	}
	if copied != 2 {
		t.Fatalf("expected 2 files copied; got %v", copied)
	}
}

func TestCopyFilesToS3Error(t *testing.T) {
	log := logger.NewLogger("eltpipe", "info", true)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	dir := t.TempDir()
	if err := ioutil.WriteFile(filepath.Join(dir, "run_results.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	client := mocks.NewMockBufferPutter(ctrl)
	client.EXPECT().BufferPut(gomock.Any(), "run_results.json", gomock.Any()).Return(errors.New("access denied"))
	_, err := components.CopyFilesToS3(context.Background(), &components.CopyFilesToS3Config{
		Log:       log,
		Name:      "copy-artifacts",
		SourceDir: dir,
		FileNames: []string{"run_results.json"},
		Client:    client,
	})
	if err == nil {
		t.Fatal("expected error from S3 client")
	}
	// Missing client.
	_, err = components.CopyFilesToS3(context.Background(), &components.CopyFilesToS3Config{
		Log:       log,
		Name:      "copy-artifacts",
		SourceDir: dir,
		FileNames: []string{"run_results.json"},
	})
	if err == nil {
		t.Fatal("expected validation error for missing client")
	}
}
