package interfaces

import (
	"context"
	"io"
)

type Uploader interface {
	UploadStream(ctx context.Context, folder string, filename string, r io.Reader) (string, error)
}
