package blob

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Settings selects and configures a blob backend.
type Settings struct {
	Driver Driver   `yaml:"driver"`
	FSRoot string   `yaml:"fs_root"`
	S3     S3Config `yaml:"s3"`
}

// Open constructs a Store from Settings. An empty driver defaults to the
// filesystem backend.
func Open(ctx context.Context, settings Settings) (Store, error) {
	driver := settings.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(settings.FSRoot)
	case DriverS3:
		return NewS3(ctx, settings.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// OpenFromEnv constructs a Store using environment variables.
//
//	SCHEDCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	SCHEDCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	SCHEDCORE_BLOB_S3_BUCKET / _REGION / _ENDPOINT / _PATH_STYLE: s3 driver
func OpenFromEnv(ctx context.Context) (Store, error) {
	return Open(ctx, SettingsFromEnv())
}

// SettingsFromEnv reads blob settings from the process environment.
func SettingsFromEnv() Settings {
	return Settings{
		Driver: Driver(os.Getenv("SCHEDCORE_BLOB_DRIVER")),
		FSRoot: os.Getenv("SCHEDCORE_BLOB_FS_ROOT"),
		S3: S3Config{
			Bucket:    os.Getenv("SCHEDCORE_BLOB_S3_BUCKET"),
			Region:    os.Getenv("SCHEDCORE_BLOB_S3_REGION"),
			Endpoint:  os.Getenv("SCHEDCORE_BLOB_S3_ENDPOINT"),
			PathStyle: strings.EqualFold(os.Getenv("SCHEDCORE_BLOB_S3_PATH_STYLE"), "true"),
		},
	}
}
