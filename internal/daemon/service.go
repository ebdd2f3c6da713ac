package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"devdeck/internal/ports"
	"devdeck/internal/registry"
	"devdeck/internal/supervisor"
)

// routes builds the control API mux. One handler per operation, mirrored
// 1:1 by the Client methods.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/ping", s.handlePing)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/apps", s.handleApps)
	mux.HandleFunc("POST /v1/dev/ensure", s.handleDevEnsure)
	mux.HandleFunc("POST /v1/dev/stop", s.handleDevStop)
	mux.HandleFunc("GET /v1/dev", s.handleDevList)
	mux.HandleFunc("GET /v1/dev/output", s.handleDevOutput)
	mux.HandleFunc("POST /v1/test/run", s.handleTestRun)
	mux.HandleFunc("POST /v1/test/stop", s.handleTestStop)
	mux.HandleFunc("GET /v1/test", s.handleTestList)
	mux.HandleFunc("GET /v1/test/output", s.handleTestOutput)
	mux.HandleFunc("POST /v1/inspector/open", s.handleInspectorOpen)
	mux.HandleFunc("POST /v1/inspector/close", s.handleInspectorClose)
	mux.HandleFunc("GET /v1/inspector", s.handleInspector)
	return mux
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, pingResponse{Ok: "pong"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, DaemonStatus{
		PID:           os.Getpid(),
		StartedAt:     s.started,
		Apps:          s.cat.Len(),
		DevServers:    len(s.sup.ListDevServers()),
		TestRuns:      len(s.sup.ListTestRuns()),
		PortMin:       s.cfg.PortMin,
		PortMax:       s.cfg.PortMax,
		PortsInUse:    s.ports.InUse(),
		InspectorOpen: s.sup.Inspector().IsOpen(),
	})
}

func (s *Server) handleApps(w http.ResponseWriter, _ *http.Request) {
	apps := s.cat.Apps()
	resp := appsResponse{Apps: make([]AppInfo, 0, len(apps))}
	for _, a := range apps {
		resp.Apps = append(resp.Apps, AppInfo{
			Name:        a.Name,
			DisplayName: a.DisplayName,
			Path:        a.FullPath,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDevEnsure(w http.ResponseWriter, r *http.Request) {
	app, err := decodeApp(r)
	if err != nil {
		s.writeInvalid(w, err)
		return
	}
	h, err := s.sup.EnsureDevServer(r.Context(), app)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, devStatusOf(h))
}

func (s *Server) handleDevStop(w http.ResponseWriter, r *http.Request) {
	app, err := decodeApp(r)
	if err != nil {
		s.writeInvalid(w, err)
		return
	}
	if err := s.sup.StopDevServer(app); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDevList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, devListResponse{Servers: s.sup.ListDevServers()})
}

func (s *Server) handleDevOutput(w http.ResponseWriter, r *http.Request) {
	app, err := queryApp(r)
	if err != nil {
		s.writeInvalid(w, err)
		return
	}
	if _, ok := s.cat.Lookup(app); !ok {
		s.writeError(w, fmt.Errorf("%w: %s", supervisor.ErrUnknownApp, app))
		return
	}
	lines, _ := s.sup.DevServerOutput(app)
	s.writeJSON(w, http.StatusOK, outputResponse{Lines: lines})
}

func (s *Server) handleTestRun(w http.ResponseWriter, r *http.Request) {
	app, err := decodeApp(r)
	if err != nil {
		s.writeInvalid(w, err)
		return
	}
	h, err := s.sup.RunTest(r.Context(), app)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, testStatusOf(h))
}

func (s *Server) handleTestStop(w http.ResponseWriter, r *http.Request) {
	app, err := decodeApp(r)
	if err != nil {
		s.writeInvalid(w, err)
		return
	}
	if err := s.sup.StopTest(app); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTestList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, testListResponse{Runs: s.sup.ListTestRuns()})
}

func (s *Server) handleTestOutput(w http.ResponseWriter, r *http.Request) {
	app, err := queryApp(r)
	if err != nil {
		s.writeInvalid(w, err)
		return
	}
	if _, ok := s.cat.Lookup(app); !ok {
		s.writeError(w, fmt.Errorf("%w: %s", supervisor.ErrUnknownApp, app))
		return
	}
	lines, _ := s.sup.TestRunOutput(app)
	s.writeJSON(w, http.StatusOK, outputResponse{Lines: lines})
}

func (s *Server) handleInspectorOpen(w http.ResponseWriter, _ *http.Request) {
	if err := s.sup.Inspector().Open(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inspectorResponse{Open: s.sup.Inspector().IsOpen()})
}

func (s *Server) handleInspectorClose(w http.ResponseWriter, _ *http.Request) {
	if err := s.sup.Inspector().Close(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, inspectorResponse{Open: s.sup.Inspector().IsOpen()})
}

func (s *Server) handleInspector(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, inspectorResponse{Open: s.sup.Inspector().IsOpen()})
}

func devStatusOf(h registry.Handle) supervisor.DevServerStatus {
	return supervisor.DevServerStatus{
		App:    h.App,
		Port:   h.Port,
		PID:    h.PID,
		Color:  h.Color,
		Status: h.Status,
	}
}

func testStatusOf(h registry.Handle) supervisor.TestRunStatus {
	return supervisor.TestRunStatus{
		App:      h.App,
		PID:      h.PID,
		Status:   h.Status,
		ExitCode: h.ExitCode,
		RunID:    h.RunID,
	}
}

func decodeApp(r *http.Request) (string, error) {
	var req appRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", fmt.Errorf("decode request: %w", err)
	}
	if req.App == "" {
		return "", errors.New("app is required")
	}
	return req.App, nil
}

func queryApp(r *http.Request) (string, error) {
	app := r.URL.Query().Get("app")
	if app == "" {
		return "", errors.New("app query parameter is required")
	}
	return app, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", "err", err)
	}
}

// writeError translates supervisor errors into the wire taxonomy.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, codeInternal
	switch {
	case errors.Is(err, supervisor.ErrUnknownApp):
		status, code = http.StatusNotFound, codeUnknownApp
	case errors.Is(err, ports.ErrExhausted):
		status, code = http.StatusTooManyRequests, codeResourceExhausted
	case errors.Is(err, supervisor.ErrSpawnFailed):
		status, code = http.StatusBadGateway, codeSpawnFailed
	}
	s.writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: err.Error()}})
}

func (s *Server) writeInvalid(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{Code: codeInvalidArgument, Message: err.Error()}})
}
