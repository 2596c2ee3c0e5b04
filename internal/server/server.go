// Package server exposes a sealfile Pipeline over HTTP. Uploads are read in
// full before the pipeline runs; results are returned as attachments.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/absfs/sealfile"
	"github.com/absfs/sealfile/internal/config"
)

const (
	requestIDHeader = "X-Request-ID"

	// uploadName is used for the download name when an upload carries none
	uploadName = "uploaded_file"
)

type ctxKey int

const loggerKey ctxKey = iota

// Server serves /encrypt, /decrypt, /roundtrip and /healthz.
type Server struct {
	config   *config.Config
	pipeline *sealfile.Pipeline
	logger   sealfile.Logger
	router   *mux.Router
}

// New creates a Server. The pipeline is shared by all requests.
func New(cfg *config.Config, pipeline *sealfile.Pipeline, logger sealfile.Logger) *Server {
	s := &Server{
		config:   cfg,
		pipeline: pipeline,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestID, cors)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/encrypt", s.handleEncrypt).Methods(http.MethodPost, http.MethodOptions)
	s.router.HandleFunc("/decrypt", s.handleDecrypt).Methods(http.MethodPost, http.MethodOptions)
	if s.config.RoundtripEnabled {
		s.router.HandleFunc("/roundtrip", s.handleRoundtrip).Methods(http.MethodPost, http.MethodOptions)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", s.config.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Infof("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestID tags every request with an ID and a request-scoped logger.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		log := s.logger.WithField("request_id", id)
		log.Debugf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), loggerKey, log)))
	})
}

// cors allows any origin, matching the browser front end's expectations.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, "+requestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) log(r *http.Request) sealfile.Logger {
	if l, ok := r.Context().Value(loggerKey).(sealfile.Logger); ok {
		return l
	}
	return s.logger
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": sealfile.Version,
	})
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	password, name, data, ok := s.readUpload(w, r, "file")
	if !ok {
		return
	}

	container, err := s.pipeline.Encrypt(name, data, password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if name == "" {
		name = uploadName
	}
	s.log(r).Infof("encrypted %q (%d bytes)", name, len(data))
	writeAttachment(w, sealfile.SealedName(name), container)
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	password, _, data, ok := s.readUpload(w, r, "file")
	if !ok {
		return
	}

	name, plaintext, err := s.pipeline.Decrypt(data, password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.log(r).Infof("decrypted %q (%d bytes)", name, len(plaintext))
	writeAttachment(w, name, plaintext)
}

func (s *Server) handleRoundtrip(w http.ResponseWriter, r *http.Request) {
	password, _, data, ok := s.readUpload(w, r, "content")
	if !ok {
		return
	}

	report, err := s.pipeline.Verify(data, password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if !report.OK {
		s.log(r).Errorf("roundtrip failed: %s", report.Detail)
		detail := "Roundtrip decryption failed"
		if report.Mismatch {
			detail = "Roundtrip mismatch"
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: detail})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// readUpload parses the multipart form and returns the password and the
// named file part. On failure it writes the response and returns false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (string, string, []byte, bool) {
	limit := s.config.MaxUploadBytes
	if r.ContentLength > limit {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Detail: "Upload too large"})
		return "", "", nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Detail: "Upload too large"})
			return "", "", nil, false
		}
		s.log(r).Debugf("bad form: %v", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid form"})
		return "", "", nil, false
	}

	password := r.FormValue("password")
	if password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Password required"})
		return "", "", nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: fmt.Sprintf("Missing %s", field)})
		return "", "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.log(r).Errorf("reading upload: %v", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Failed to read upload"})
		return "", "", nil, false
	}

	return password, header.Filename, data, true
}

type errorBody struct {
	Detail string `json:"detail"`
}

// StatusFor maps a pipeline error to an HTTP status and client message. Wrong
// password and tampering share one message.
func StatusFor(err error) (int, string) {
	switch sealfile.KindOf(err) {
	case sealfile.KindInput:
		return http.StatusBadRequest, "Password required"
	case sealfile.KindTruncated:
		return http.StatusBadRequest, "Invalid file"
	case sealfile.KindAuth:
		return http.StatusBadRequest, "Decryption failed. Bad password or corrupted file."
	case sealfile.KindEmptyArchive:
		return http.StatusBadRequest, "Decrypted zip is empty"
	case sealfile.KindEmptyPayload:
		return http.StatusBadRequest, "Decrypted file is empty"
	case sealfile.KindMalformedArchive:
		return http.StatusBadRequest, "Decrypted archive is malformed"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := StatusFor(err)
	log := s.log(r).WithField("kind", sealfile.KindOf(err).String())
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		log.Infof("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeAttachment(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
