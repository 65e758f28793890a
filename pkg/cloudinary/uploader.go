package cloudinary

import (
	"context"
	"io"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryUploader struct {
	cld *cld.Cloudinary
}

func NewCloudinaryUploader(cloud *cld.Cloudinary) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cloud}
}

// UploadStream streams r to Cloudinary and returns the delivery URL. The
// reader is consumed as the transfer progresses, so callers can wrap it to
// observe upload progress.
func (u *CloudinaryUploader) UploadStream(
	ctx context.Context,
	folder string,
	filename string,
	r io.Reader,
) (string, error) {
	res, err := u.cld.Upload.Upload(
		ctx,
		r,
		uploader.UploadParams{
			Folder:   folder,
			PublicID: filename,
			// evidence files may be pdf or image
			ResourceType: "auto",
		},
	)
	if err != nil {
		return "", err
	}

	return res.SecureURL, nil
}
