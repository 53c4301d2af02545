package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	nethttp "net/http"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/marmos91/dittozip/internal/logger"
	"github.com/marmos91/dittozip/pkg/download"
	"github.com/marmos91/dittozip/pkg/store/catalog"
)

// === Request/Response types ===

type requestedItem struct {
	ID        string `json:"id"`
	IsFile    bool   `json:"is_file"`
	FilesOnly bool   `json:"files_only"`
}

type zipRequest struct {
	Items []requestedItem `json:"items"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (a *HTTPAdapter) registerRoutes(mux *nethttp.ServeMux) {
	mux.HandleFunc("GET /healthz", a.instrument("healthz", a.health))
	mux.HandleFunc("GET /datasets/{dataset}/files/{file}", a.instrument("file", a.downloadFile))
	mux.HandleFunc("POST /datasets/{dataset}/zip", a.instrument("zip", a.throttled(a.downloadZip)))
}

func (a *HTTPAdapter) health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if err := a.registry.Healthcheck(r.Context()); err != nil {
		writeError(w, nethttp.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	writeJSON(w, nethttp.StatusOK, healthResponse{Status: "ok"})
}

func (a *HTTPAdapter) downloadFile(w nethttp.ResponseWriter, r *nethttp.Request) {
	svc, err := a.registry.Service()
	if err != nil {
		writeError(w, nethttp.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}

	datasetID := catalog.DatasetID(r.PathValue("dataset"))
	fileID := catalog.ItemID(r.PathValue("file"))

	fc, err := svc.GetFileContent(r.Context(), identityFromRequest(r), datasetID, fileID)
	if err != nil {
		writeDownloadError(w, err)
		return
	}

	rc, err := a.registry.Opener().Open(r.Context(), fc.URL)
	if err != nil {
		logger.Error("Unable to open content of %s: %v", fc.Item.ID, err)
		writeError(w, nethttp.StatusInternalServerError, download.KindProcessing.String(), "unable to read file content")
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(fc.Item.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(fc.Item.Name))
	w.WriteHeader(nethttp.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		logger.Warn("Download of file %s interrupted: %v", fc.Item.ID, err)
	}
}

func (a *HTTPAdapter) downloadZip(w nethttp.ResponseWriter, r *nethttp.Request) {
	svc, err := a.registry.Service()
	if err != nil {
		writeError(w, nethttp.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}

	var req zipRequest
	body := nethttp.MaxBytesReader(w, r.Body, a.config.MaxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *nethttp.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, nethttp.StatusRequestEntityTooLarge, "invalid_request", "request body too large")
			return
		}
		writeError(w, nethttp.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return
	}

	requested := make([]catalog.RequestedItem, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ID == "" {
			writeError(w, nethttp.StatusBadRequest, "invalid_request", "item id required")
			return
		}
		requested = append(requested, catalog.RequestedItem{
			ID:        catalog.ItemID(item.ID),
			IsFile:    item.IsFile,
			FilesOnly: item.FilesOnly,
		})
	}

	start := time.Now()
	result, err := svc.GetZippedContent(r.Context(), identityFromRequest(r), catalog.DatasetID(r.PathValue("dataset")), requested)
	if err != nil {
		writeDownloadError(w, err)
		return
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Failed to remove archive %s: %v", result.Path, err)
		}
	}()

	f, err := os.Open(result.Path)
	if err != nil {
		logger.Error("Unable to open archive %s: %v", result.Path, err)
		writeError(w, nethttp.StatusInternalServerError, download.KindProcessing.String(), "unable to read archive")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", attachment(result.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
	w.WriteHeader(nethttp.StatusOK)

	n, err := io.Copy(w, f)
	if err != nil {
		logger.Warn("Download of %s interrupted after %s: %v", result.Filename, humanize.IBytes(uint64(n)), err)
		return
	}
	logger.Debug("Served %s (%s, %d items) in %v", result.Filename, humanize.IBytes(uint64(n)), len(result.Items), time.Since(start))
}

// statusFor maps the download error taxonomy onto HTTP status codes.
func statusFor(kind download.Kind) int {
	switch kind {
	case download.KindAuthorization:
		return nethttp.StatusForbidden
	case download.KindNotFound:
		return nethttp.StatusNotFound
	case download.KindTooManyFiles, download.KindPayloadTooLarge:
		return nethttp.StatusRequestEntityTooLarge
	case download.KindStoreAccess:
		return nethttp.StatusServiceUnavailable
	default:
		return nethttp.StatusInternalServerError
	}
}

func writeDownloadError(w nethttp.ResponseWriter, err error) {
	kind := download.KindOf(err)
	message := err.Error()
	switch kind {
	case download.KindProcessing:
		message = "Unable to create zip file"
	case download.KindStoreAccess:
		message = "Storage temporarily unavailable"
	}
	writeError(w, statusFor(kind), kind.String(), message)
}

// throttled rejects requests beyond the client's archive rate with 429.
func (a *HTTPAdapter) throttled(next nethttp.HandlerFunc) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if !a.zipLimiter.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, nethttp.StatusTooManyRequests, "rate_limited", "too many archive requests")
			return
		}
		next(w, r)
	}
}

func attachment(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func writeJSON(w nethttp.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("Failed to write response: %v", err)
	}
}

func writeError(w nethttp.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, errorResponse{Error: errType, Message: message})
}
