package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/iconstack/pkg/buildinfo"
	"github.com/matzehuels/iconstack/pkg/config"
	"github.com/matzehuels/iconstack/pkg/errors"
	"github.com/matzehuels/iconstack/pkg/host"
	"github.com/matzehuels/iconstack/pkg/host/memory"
	"github.com/matzehuels/iconstack/pkg/imageio"
	"github.com/matzehuels/iconstack/pkg/layout"
	"github.com/matzehuels/iconstack/pkg/observability"
	"github.com/matzehuels/iconstack/pkg/pipeline"
	"github.com/matzehuels/iconstack/pkg/stack"
)

// defaultSource names the uploaded layer and the plan source when the
// request does not name one.
const defaultSource = "Base"

type control struct {
	Slot       int    `json:"slot"`
	SizeName   string `json:"size_name"`
	ToggleName string `json:"toggle_name"`
	FrameName  string `json:"frame_name"`
	Label      string `json:"label"`
}

type box struct {
	Name     string    `json:"name"`
	Controls []control `json:"controls"`
}

type defaultsResponse struct {
	Config     config.Config     `json:"config"`
	Selections []stack.Selection `json:"selections"`
	Boxes      []box             `json:"boxes"`
}

type planRequest struct {
	Source     string            `json:"source"`
	Selections []stack.Selection `json:"selections"`
}

type planResponse struct {
	Outcome string          `json:"outcome"`
	Source  stack.Handle    `json:"source"`
	Sizes   []int           `json:"sizes"`
	Ops     []stack.LayerOp `json:"ops"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	rows := s.cfg.Rows()
	boxes := make([]box, len(rows))
	for i, row := range rows {
		boxes[i] = box{Name: layout.BoxName(i), Controls: make([]control, len(row))}
		for j, c := range row {
			boxes[i].Controls[j] = control{
				Slot:       c.Slot,
				SizeName:   c.SizeName(),
				ToggleName: c.ToggleName(),
				FrameName:  c.FrameName(),
				Label:      c.Label(),
			}
		}
	}
	writeJSON(w, http.StatusOK, defaultsResponse{
		Config:     s.cfg,
		Selections: s.cfg.DefaultSelections(),
		Boxes:      boxes,
	})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Source == "" {
		req.Source = defaultSource
	}
	if err := errors.ValidateLayerName(req.Source); err != nil {
		s.writeError(w, r, err)
		return
	}

	runner := pipeline.NewRunner(nil, s.cache, s.keyer, s.logger)
	res, err := runner.Plan(r.Context(), pipeline.Options{
		Config: s.cfg,
		Candidates: []host.Drawable{{
			Handle: stack.Handle(req.Source),
			Name:   req.Source,
			Kind:   host.KindLayer,
		}},
		Selections: req.Selections,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, planResponse{
		Outcome: res.Outcome.String(),
		Source:  res.Source.Handle,
		Sizes:   stack.Sizes(res.Ops),
		Ops:     res.Ops,
	})
}

func (s *Server) handleIcon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse upload"))
		return
	}
	f, _, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "missing image field"))
		return
	}
	defer f.Close()

	src, format, err := imageio.DecodeLimit(f, maxSourceDimension)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var sel []stack.Selection
	if raw := r.FormValue("selections"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &sel); err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode selections"))
			return
		}
	}

	store := memory.NewStore()
	id := store.AddImage("upload")
	h, err := store.AddLayer(id, defaultSource, src)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	base, err := store.Drawable(h)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	runner := pipeline.NewRunner(store, s.cache, s.keyer, s.logger)
	res, err := runner.Execute(r.Context(), pipeline.Options{
		Config:     s.cfg,
		Image:      id,
		Candidates: []host.Drawable{base},
		Selections: sel,
		Export:     true,
		Refresh:    r.URL.Query().Get("refresh") == "true",
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Outcome == pipeline.OutcomeNoOp {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sizes := stack.Sizes(res.Ops)
	parts := make([]string, len(sizes))
	for i, n := range sizes {
		parts[i] = strconv.Itoa(n)
	}
	cacheStatus := "miss"
	if res.CacheInfo.IconHit {
		cacheStatus = "hit"
	}

	w.Header().Set("Content-Type", "image/x-icon")
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Icon)))
	w.Header().Set("X-Icon-Sizes", strings.Join(parts, ","))
	w.Header().Set("X-Source-Format", format)
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Icon)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error: errors.UserMessage(err),
		Code:  errors.GetCode(err),
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeImageTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSize, errors.ErrCodeInvalidConfig,
		errors.ErrCodeInvalidProfile, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidFormat, errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodePrecondition:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeFileNotFound, errors.ErrCodeLayerNotFound, errors.ErrCodeImageNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
