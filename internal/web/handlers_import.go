package web

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/contacts/internal/core"
	"github.com/JonMunkholm/contacts/internal/logging"
	"github.com/gabriel-vasile/mimetype"
)

// multipartMemory is how much of the upload is kept in memory; the rest spills to a temp file.
const multipartMemory = 8 << 20

// importDeadlineSlack covers the upload itself and writing the summary.
const importDeadlineSlack = 30 * time.Second

// handleImport receives a CSV upload in the multipart field "file" and runs
// it through the import pipeline. Rows are streamed straight from the part.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// The server-wide read and write timeouts are sized for short requests.
	// An import may legitimately run until the import timeout.
	s.extendDeadlines(w, r)

	maxSize := s.cfg.Import.MaxFileSize
	if r.ContentLength > maxSize {
		writeError(w, http.StatusRequestEntityTooLarge, msgFileTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		switch {
		case isTooLarge(err):
			writeError(w, http.StatusRequestEntityTooLarge, msgFileTooLarge)
		case errors.Is(err, http.ErrNotMultipart):
			writeError(w, http.StatusBadRequest, msgNoFile)
		default:
			writeError(w, http.StatusBadRequest, msgInvalidFile)
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeError(w, http.StatusBadRequest, msgNoFile)
		} else {
			writeError(w, http.StatusBadRequest, msgInvalidFile)
		}
		return
	}

	mediaType, err := detectMediaType(header, file)
	if err != nil {
		file.Close()
		writeError(w, http.StatusBadRequest, msgInvalidFile)
		return
	}
	if !s.typeAllowed(mediaType) {
		file.Close()
		logging.FromContext(r.Context()).Info("import rejected",
			"file", header.Filename,
			"media_type", mediaType,
		)
		writeError(w, http.StatusBadRequest, msgTypeNotAllowed)
		return
	}

	// The service closes file on every path.
	result, err := s.service.Import(withClient(r), header.Filename, file, header.Size)
	if result != nil {
		w.Header().Set("X-Import-ID", result.ImportID.String())
	}
	if err != nil {
		if errors.Is(err, core.ErrTooManyImports) {
			w.Header().Set("Retry-After", "5")
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, result.Outcome)
}

// extendDeadlines moves the connection deadlines past the longest an import
// may wait for a slot and run.
func (s *Server) extendDeadlines(w http.ResponseWriter, r *http.Request) {
	deadline := time.Now().Add(s.cfg.Import.MaxWaitTime + s.cfg.Import.Timeout + importDeadlineSlack)

	rc := http.NewResponseController(w)
	for _, set := range []func(time.Time) error{rc.SetReadDeadline, rc.SetWriteDeadline} {
		if err := set(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
			logging.FromContext(r.Context()).Debug("extend import deadline", "error", err)
		}
	}
}

// detectMediaType returns the declared media type of the part, or sniffs the
// content when the client sent none or the generic octet-stream.
func detectMediaType(header *multipart.FileHeader, file multipart.File) (string, error) {
	if declared := header.Header.Get("Content-Type"); declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err == nil && mediaType != "application/octet-stream" {
			return mediaType, nil
		}
	}

	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	mediaType, _, err := mime.ParseMediaType(mt.String())
	if err != nil {
		return "", err
	}
	return mediaType, nil
}

func (s *Server) typeAllowed(mediaType string) bool {
	for _, allowed := range s.cfg.Import.AllowedTypes {
		if strings.EqualFold(mediaType, allowed) {
			return true
		}
	}
	return false
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart does not always wrap the body error.
	return strings.Contains(err.Error(), "request body too large")
}
