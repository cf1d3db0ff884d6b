package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/confkeeper/internal/common"
)

const maxUploadSize = 16 << 20

func (s *Server) handleUpload(folder string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		file, header, err := r.FormFile("file")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				badRequest(w, "No file part")
				return
			}
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeJSON(w, http.StatusRequestEntityTooLarge, envelope{"success": false, "error": "File too large"})
				return
			}
			s.writeError(w, r, common.NewError(common.ErrorValidation, "Invalid upload"))
			return
		}
		defer file.Close()

		res, err := s.svc.Uploads.Upload(r.Context(), identityFrom(r.Context()), folder,
			header.Filename, file, header.Header.Get("Content-Type"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		body := envelope{
			"success":  true,
			"message":  "File uploaded successfully",
			"filename": res.Filename,
			"filepath": res.Path,
		}
		if res.URL != "" {
			body["url"] = res.URL
		}
		writeJSON(w, http.StatusOK, body)
	}
}
