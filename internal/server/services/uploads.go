package services

import (
	"context"
	"io"
	"strings"

	"github.com/dmitrijs2005/confkeeper/internal/blob"
	"github.com/dmitrijs2005/confkeeper/internal/common"
	"github.com/dmitrijs2005/confkeeper/internal/filex"
	"github.com/dmitrijs2005/confkeeper/internal/logging"
	"github.com/dmitrijs2005/confkeeper/internal/server/models"
	"github.com/google/uuid"
)

// Upload folders.
const (
	UploadPapers       = "papers"
	UploadCertificates = "certificates"
)

var allowedUploadExt = map[string]bool{
	"pdf": true, "doc": true, "docx": true, "txt": true,
	"jpg": true, "jpeg": true, "png": true,
}

var (
	errNoSelectedFile = common.NewError(common.ErrorValidation, "No selected file")
	errFileType       = common.NewError(common.ErrorValidation, "File type not allowed")
)

type UploadResult struct {
	Filename string `json:"filename"`
	Path     string `json:"filepath"`
	// URL is a short-lived download link, set for stores that sign URLs.
	URL string `json:"url,omitempty"`
}

type UploadService struct {
	store blob.Store
	log   logging.Logger
}

func NewUploadService(store blob.Store, log logging.Logger) *UploadService {
	return &UploadService{store: store, log: log}
}

// Upload stores r under folder/<uuid>-<sanitized name>.
func (s *UploadService) Upload(ctx context.Context, actor *models.Identity, folder, filename string, r io.Reader, contentType string) (*UploadResult, error) {
	if actor == nil {
		return nil, errLoginRequired
	}
	if strings.TrimSpace(filename) == "" {
		return nil, errNoSelectedFile
	}
	name := filex.SanitizeName(filename)
	if name == "" || !allowedUploadExt[filex.Ext(name)] {
		return nil, errFileType
	}
	if folder != UploadPapers && folder != UploadCertificates {
		return nil, common.NewError(common.ErrorValidation, "Unknown upload folder")
	}

	stored := uuid.NewString() + "-" + name
	key := folder + "/" + stored
	path, err := s.store.Put(ctx, key, r, contentType)
	if err != nil {
		s.log.Error(ctx, "upload failed", "folder", folder, "error", err)
		return nil, common.NewError(common.ErrorInternal, "Upload failed")
	}
	res := &UploadResult{Filename: stored, Path: path}

	if signer, ok := s.store.(blob.Signer); ok {
		// the object is stored; a signing failure only loses the link
		if res.URL, err = signer.SignedURL(ctx, key); err != nil {
			s.log.Warn(ctx, "sign upload url failed", "key", key, "error", err)
		}
	}

	s.log.Info(ctx, "file uploaded", "folder", folder, "filename", stored, "user_id", actor.UserID)
	return res, nil
}
