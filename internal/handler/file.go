package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/studyshare/backend/internal/ctxkeys"
	"github.com/studyshare/backend/internal/response"
	"github.com/studyshare/backend/internal/service"
)

// uploadField is the multipart form field carrying the file
const uploadField = "file"

// multipartOverhead is the body allowance on top of the file cap for
// boundaries, part headers and small form fields.
const multipartOverhead = 1 << 20

type fileHandler struct {
	assetService *service.AssetService
	errors       errorResponder
}

func NewFileHandler(assetService *service.AssetService, isDev bool) *fileHandler {
	return &fileHandler{
		assetService: assetService,
		errors:       errorResponder{isDev: isDev},
	}
}

// Upload streams the "file" part of a multipart body into the asset service
// without spooling it to a temp file first.
func (h *fileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())
	if principal == nil {
		response.Error(w, http.StatusUnauthorized, "Unauthorized - No token provided")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.assetService.MaxSize()+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		response.Error(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	part, err := nextFilePart(reader)
	if err != nil {
		if isBodyTooLarge(err) {
			response.Error(w, http.StatusBadRequest, "File too large")
			return
		}
		response.Error(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer part.Close()

	asset, err := h.assetService.Ingress(r.Context(), service.UploadInput{
		Body:        part,
		Name:        part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
		Size:        -1,
		OwnerID:     principal.ID,
	})
	if err != nil {
		if isBodyTooLarge(err) {
			response.Error(w, http.StatusBadRequest, "File too large")
			return
		}
		h.errors.write(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MessageBody{
		Message: "File uploaded successfully",
		File:    asset,
	})
}

func (h *fileHandler) List(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assetService.List(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, assets)
}

func (h *fileHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.Principal(r.Context())
	if principal == nil {
		response.Error(w, http.StatusUnauthorized, "Unauthorized - No token provided")
		return
	}

	assets, err := h.assetService.ListMine(r.Context(), principal.ID)
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, assets)
}

func (h *fileHandler) Get(w http.ResponseWriter, r *http.Request) {
	asset, err := h.assetService.Retrieve(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, asset)
}

// Download streams the blob with attachment headers. The counter is already
// bumped by the time the first byte is written.
func (h *fileHandler) Download(w http.ResponseWriter, r *http.Request) {
	download, err := h.assetService.Stream(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	defer func() {
		closeErr := download.Body.Close()
		if closeErr != nil {
			slog.Warn("failed to close blob reader", "error", closeErr, "file_id", download.Asset.ID)
		}
	}()

	asset := download.Asset
	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, encodeFilename(asset.DisplayName)))
	w.Header().Set("Content-Length", strconv.FormatInt(asset.Size, 10))
	w.WriteHeader(http.StatusOK)

	written, err := io.Copy(w, download.Body)
	if err != nil {
		// Headers are gone; the short body tells the client the transfer broke
		slog.Warn("download interrupted",
			"error", err,
			"file_id", asset.ID,
			"written", written,
			"size", asset.Size,
			"request_id", ctxkeys.RequestID(r.Context()),
		)
	}
}

func (h *fileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	asset, err := h.assetService.Delete(r.Context(), r.PathValue("id"), ctxkeys.Principal(r.Context()))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MessageBody{
		Message: "File deleted successfully",
		File:    asset,
	})
}

// nextFilePart skips parts until it finds the upload field with a filename.
func nextFilePart(reader *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := reader.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == uploadField && part.FileName() != "" {
			return part, nil
		}

		_, err = io.Copy(io.Discard, part)
		part.Close()
		if err != nil {
			return nil, err
		}
	}
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

// encodeFilename percent-encodes everything outside the unreserved set so the
// quoted header value stays ASCII and unambiguous.
func encodeFilename(name string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
