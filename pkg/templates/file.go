package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/DSACMS/process-information-api/pkg/core"
)

type fileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore reads the template from <dir>/<container>/<blob>, mirroring
// the blob layout on local disk.
func NewFileStore(dir, container, blob string, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}

	path := filepath.Join(dir, container, blob)

	return &fileStore{
		path: path,
		logger: logger.With(
			slog.String("component", "templates"),
			slog.String("store", "local"),
			slog.String("path", path),
		),
	}
}

func (s *fileStore) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.NewStorageError("fetch template", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.NewStorageError(fmt.Sprintf("template %s does not exist", s.path), err)
		}
		return nil, core.NewStorageError("read template", err)
	}

	s.logger.DebugContext(ctx, "template read", slog.Int("bytes", len(data)))

	return data, nil
}
