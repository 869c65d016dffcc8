package wizards

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"tenderdesk/internal/lib/api/response"
	"tenderdesk/internal/lib/sl"
	"tenderdesk/internal/lib/validate"
)

// multipartOverhead leaves room for the form fields around the file.
const multipartOverhead = 1 << 20

// Upload accepts a multipart form with "field" naming the file field and
// "file" holding the file.
func Upload(log *slog.Logger, handler Core, maxSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		s, ok := session(w, r, logger, handler)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
		if err := r.ParseMultipartForm(multipartOverhead); err != nil {
			logger.Debug("bad upload request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid upload"))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		field := r.FormValue("field")
		if err := validate.Var(field, "required,max=64"); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("field is required"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("file is required"))
			return
		}
		defer func() { _ = file.Close() }()

		logger.With(
			slog.String("field", field),
			slog.String("filename", header.Filename),
			slog.Int64("size", header.Size),
		).Debug("upload received")

		reply(w, r, logger, s, s.Upload(r.Context(), field, header.Filename, file), http.StatusBadGateway)
	}
}
