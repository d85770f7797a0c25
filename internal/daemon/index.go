package daemon

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"mediafetch/internal/logging"
	"mediafetch/internal/workflow"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type indexData struct {
	Title          string
	DefaultBitrate string
}

func (s *apiServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	bitrate := s.daemon.cfg.Fetcher.DefaultAudioBitrate
	if bitrate == "" {
		bitrate = workflow.DefaultAudioBitrate
	}
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, indexData{Title: "mediafetch", DefaultBitrate: bitrate}); err != nil {
		s.requestLogger(r).Error("render index", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
