package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solacevoice/solace/internal/artifact"
	"github.com/solacevoice/solace/internal/config"
	"github.com/solacevoice/solace/internal/turn"
)

// maxRequestBody caps the multipart/JSON request body well above the audio
// size limit so oversized uploads are rejected by the pipeline with its own
// message instead of a connection reset.
const maxRequestBody = 64 << 20

// serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func serve(ctx context.Context, cfg *config.Config, orc *turn.Orchestrator, store *artifact.Store) int {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/therapy", handleTherapy(orc))
	mux.HandleFunc("GET /download/{name}", handleDownload(store))
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		slog.Warn("shutdown did not complete cleanly", "err", err)
		return 1
	}
	return 0
}

// ── Handlers ──────────────────────────────────────────────────────────────────

// therapyRequest is the JSON body of a text turn.
type therapyRequest struct {
	Message   string `json:"message"`
	FaceImage string `json:"face_image"`
}

func handleTherapy(orc *turn.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

		req, err := parseTurnRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), 0)
			return
		}

		res, err := orc.Process(r.Context(), *req)
		if err != nil {
			var terr *turn.Error
			if errors.As(err, &terr) {
				writeError(w, terr.HTTPStatus(), terr.Message, terr.Duration)
				return
			}
			slog.Error("turn failed", "err", err)
			writeError(w, http.StatusInternalServerError, "Internal server error.", 0)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// parseTurnRequest maps a multipart form (audio or image file upload) or a
// JSON body (text message plus optional face snapshot) onto a turn request.
func parseTurnRequest(r *http.Request) (*turn.Request, error) {
	ct := r.Header.Get("Content-Type")
	mt, _, _ := mime.ParseMediaType(ct)

	if mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxRequestBody); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		if file, header, err := r.FormFile("audio"); err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, fmt.Errorf("read audio upload: %w", err)
			}
			return &turn.Request{Audio: &turn.AudioInput{Data: data, Filename: header.Filename}}, nil
		}
		if file, header, err := r.FormFile("image"); err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return nil, fmt.Errorf("read image upload: %w", err)
			}
			return &turn.Request{Image: &turn.ImageInput{Data: data, Filename: header.Filename}}, nil
		}
		return nil, errors.New("multipart form has neither an audio nor an image file")
	}

	var body therapyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	return &turn.Request{Text: &turn.TextInput{Message: body.Message, FaceImage: body.FaceImage}}, nil
}

func handleDownload(store *artifact.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		data, err := store.Open(name)
		if err != nil {
			if errors.Is(err, artifact.ErrNotFound) {
				writeError(w, http.StatusNotFound, "File not found.", 0)
				return
			}
			slog.Error("open artifact", "name", name, "err", err)
			writeError(w, http.StatusInternalServerError, "Internal server error.", 0)
			return
		}
		w.Header().Set("Content-Type", artifact.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ── Response helpers ──────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "err", err)
	}
}

// writeError emits {"error": msg}, adding the measured duration in seconds
// when the rejection carried one.
func writeError(w http.ResponseWriter, status int, msg string, duration time.Duration) {
	body := map[string]any{"error": msg}
	if duration > 0 {
		body["duration"] = duration.Seconds()
	}
	writeJSON(w, status, body)
}

// encodeImage wraps raw image bytes in the base64 form the face-image field
// accepts.
func encodeImage(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
