package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "github.com/handlescan/handlescan/internal/errors"

	"github.com/handlescan/handlescan/internal/core"
	"github.com/handlescan/handlescan/internal/core/engine"
)

// maxScanBody caps the request body; scan requests are small.
const maxScanBody = 1 << 20

// defaultScanTimeout bounds one API scan end to end.
const defaultScanTimeout = 60 * time.Second

// ScanHandler serves availability scans over HTTP using a shared dispatcher.
type ScanHandler struct {
	Dispatcher *engine.Dispatcher
	Timeout    time.Duration
	Sets       []core.Set
}

// NewScanHandler creates a scan handler bound to the given dispatcher.
func NewScanHandler(dispatcher *engine.Dispatcher, timeout time.Duration, sets []core.Set) *ScanHandler {
	if timeout <= 0 {
		timeout = defaultScanTimeout
	}
	return &ScanHandler{
		Dispatcher: dispatcher,
		Timeout:    timeout,
		Sets:       sets,
	}
}

// ScanRequest is the POST /api/v1/scan body.
type ScanRequest struct {
	Queries       []string `json:"queries"`
	Platforms     []string `json:"platforms,omitempty"`
	AvailableOnly bool     `json:"available_only,omitempty"`
}

// ScanResponse carries the ordered results for one scan.
type ScanResponse struct {
	Results []*core.CheckResult `json:"results"`
	Total   int                 `json:"total"`
}

// Scan handles POST /api/v1/scan.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScanRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxScanBody))
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(ctx, err, "request body is not valid JSON"))
		return
	}

	if len(req.Queries) == 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError("at least one query is required"))
		return
	}

	names := req.Platforms
	if len(names) == 0 {
		names = core.PlatformNames()
	}
	names, err := core.ExpandPlatformNames(names, h.Sets)
	if err != nil {
		respondWithError(w, r, apperrors.WrapValidationError(ctx, err, "platform selection is invalid"))
		return
	}

	scanCtx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	results, err := h.Dispatcher.Run(scanCtx, req.Queries, names)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			respondWithError(w, r, apperrors.WrapTimeout(ctx, err, "scan did not complete in time"))
			return
		}
		respondWithError(w, r, apperrors.WrapInternal(ctx, err, "scan failed"))
		return
	}

	if req.AvailableOnly {
		filtered := results[:0]
		for _, result := range results {
			if result.Success && result.Valid && result.Available {
				filtered = append(filtered, result)
			}
		}
		results = filtered
	}

	response := ScanResponse{
		Results: results,
		Total:   len(results),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// PlatformInfo describes one supported platform for API consumers.
type PlatformInfo struct {
	Name       string   `json:"name"`
	Kinds      []string `json:"kinds"`
	NeedsSetup bool     `json:"needs_setup"`
	ProfileURL string   `json:"profile_url,omitempty"`
}

// PlatformsResponse lists supported platforms and selectable sets.
type PlatformsResponse struct {
	Platforms []PlatformInfo `json:"platforms"`
	Sets      []core.Set     `json:"sets"`
}

// Platforms handles GET /api/v1/platforms.
func (h *ScanHandler) Platforms(w http.ResponseWriter, r *http.Request) {
	platforms := core.Platforms()
	infos := make([]PlatformInfo, 0, len(platforms))
	for _, p := range platforms {
		kinds := make([]string, 0, len(p.Kinds))
		for _, k := range p.Kinds {
			kinds = append(kinds, string(k))
		}
		infos = append(infos, PlatformInfo{
			Name:       p.Name,
			Kinds:      kinds,
			NeedsSetup: p.NeedsSetup,
			ProfileURL: p.ProfileURL,
		})
	}

	sets := make([]core.Set, 0, len(core.BuiltInSets)+len(h.Sets))
	sets = append(sets, core.BuiltInSets...)
	sets = append(sets, h.Sets...)

	response := PlatformsResponse{
		Platforms: infos,
		Sets:      sets,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
