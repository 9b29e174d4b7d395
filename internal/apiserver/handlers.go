package apiserver

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"openentropy/internal/apischema"
	"openentropy/internal/entropy/conditioning"
)

const (
	minRandomLength = 1
	maxRandomLength = 65536
)

// randomResponse is the wire shape of GET /api/v1/random.
type randomResponse struct {
	Type        string `json:"type"`
	Length      int    `json:"length"`
	Data        any    `json:"data"`
	Success     bool   `json:"success"`
	Conditioned string `json:"conditioned"`
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	length := 32
	if v := q.Get("length"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			length = n
		}
	}
	if length < minRandomLength {
		length = minRandomLength
	}
	if length > maxRandomLength {
		length = maxRandomLength
	}

	outType := q.Get("type")
	if outType == "" {
		outType = "hex16"
	}
	switch outType {
	case "hex16", "uint8", "uint16":
	default:
		if s.metrics != nil {
			s.metrics.ErrorsTotal.Inc()
		}
		writeJSONError(w, http.StatusBadRequest, "unknown type, want hex16|uint8|uint16")
		return
	}

	mode, err := conditioning.ParseMode(q.Get("conditioning"))
	if err != nil {
		mode = conditioning.Sha256
	}
	if mode == conditioning.Raw && !s.allowRaw {
		mode = conditioning.Sha256
	}

	start := time.Now()
	raw := s.pool.GetBytes(length, mode)
	if s.metrics != nil {
		s.metrics.ConditioningDuration.Observe(time.Since(start).Seconds())
		s.metrics.BytesCollectedTotal.Add(uint64(len(raw)))
	}

	resp := randomResponse{
		Type:        outType,
		Length:      length,
		Data:        encodeRandomData(outType, raw),
		Success:     true,
		Conditioned: conditioningLabel(mode),
	}

	if err := apischema.ValidateRandomResponse(resp); err != nil {
		s.logf(r, "random response failed schema validation", "error", err)
	}

	writeJSON(w, http.StatusOK, resp)
}

func encodeRandomData(outType string, raw []byte) any {
	switch outType {
	case "uint8":
		out := make([]uint8, len(raw))
		for i, b := range raw {
			out[i] = uint8(b)
		}
		return out
	case "uint16":
		n := len(raw) / 2
		out := make([]uint16, n)
		for i := 0; i < n; i++ {
			out[i] = binary.LittleEndian.Uint16(raw[i*2:])
		}
		return out
	default: // hex16
		return hex.EncodeToString(raw)
	}
}

// healthResponse is the wire shape of GET /health.
type healthResponse struct {
	Status         string `json:"status"`
	SourcesHealthy int    `json:"sources_healthy"`
	SourcesTotal   int    `json:"sources_total"`
	RawBytes       uint64 `json:"raw_bytes"`
	OutputBytes    uint64 `json:"output_bytes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.pool.HealthReport()

	status := "healthy"
	if report.IsDegraded() {
		status = "degraded"
	}

	if s.metrics != nil {
		s.metrics.SourceHealthy.Set(int64(report.HealthyCount))
		s.metrics.SourceFailed.Set(int64(report.TotalCount - report.HealthyCount))
		s.metrics.UptimeSeconds.Set(int64(s.pool.Uptime().Seconds()))
	}

	resp := healthResponse{
		Status:         status,
		SourcesHealthy: report.HealthyCount,
		SourcesTotal:   report.TotalCount,
		RawBytes:       report.RawBytesCumulative,
		OutputBytes:    report.OutputBytesCumulative,
	}

	if err := apischema.ValidateHealthResponse(resp); err != nil {
		s.logf(r, "health response failed schema validation", "error", err)
	}

	writeJSON(w, http.StatusOK, resp)
}

// sourceInfo is one entry in GET /sources.
type sourceInfo struct {
	ID               string   `json:"id"`
	Description      string   `json:"description"`
	PhysicsRationale string   `json:"physics_rationale"`
	Category         string   `json:"category"`
	Platform         string   `json:"platform"`
	Capabilities     []string `json:"capabilities"`
	EntropyRateBPS   float64  `json:"entropy_rate_bps"`
	Composite        bool     `json:"composite"`
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	infos := s.pool.SourceInfos()
	out := make([]sourceInfo, len(infos))
	for i, info := range infos {
		caps := make([]string, len(info.Capabilities))
		for j, c := range info.Capabilities {
			caps[j] = string(c)
		}
		out[i] = sourceInfo{
			ID:               info.ID,
			Description:      info.Description,
			PhysicsRationale: info.PhysicsRationale,
			Category:         string(info.Category),
			Platform:         string(info.Platform),
			Capabilities:     caps,
			EntropyRateBPS:   info.EntropyRateBPS,
			Composite:        info.Composite,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sources": out,
		"total":   len(out),
	})
}

func (s *Server) handlePoolStatus(w http.ResponseWriter, r *http.Request) {
	report := s.pool.HealthReport()
	writeJSON(w, http.StatusOK, map[string]any{
		"pool_id":      s.pool.ID(),
		"uptime_secs":  s.pool.Uptime().Seconds(),
		"source_count": s.pool.SourceCount(),
		"health":       report,
		"allow_raw":    s.allowRaw,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
