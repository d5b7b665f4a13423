// Package service implements spec §6's RPC surface (Infer, NBest,
// ShowGraph) as a JSON HTTP API, grounded in the teacher's
// go-restful/v3-based REST server (server/rest.go) and its
// prometheus-backed metrics endpoint.
package service

import (
	"fmt"
	"net/http"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/eth-sri/nice2predict/nlog"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wraps an Engine in a go-restful web service and exposes it over
// HTTP, following the teacher's RestServer pattern (CreateWebService +
// StartHttpServer).
type Server struct {
	Engine     *Engine
	Host       string
	Port       int
	WebService *restful.WebService
}

// NewServer constructs a Server around an already-loaded Engine.
func NewServer(engine *Engine, host string, port int) *Server {
	return &Server{Engine: engine, Host: host, Port: port}
}

// requestIDFilter stamps every request with a uuid and logs its latency,
// grounded in the teacher's LogFilter (server/rest.go).
func requestIDFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	id := uuid.New().String()
	req.SetAttribute("request_id", id)
	start := time.Now()
	chain.ProcessFilter(req, resp)
	nlog.Logger().Info("request served",
		zap.String("request_id", id),
		zap.String("path", req.Request.URL.Path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", time.Since(start)))
}

// CreateWebService registers the three RPC procedures as JSON routes.
func (s *Server) CreateWebService() {
	ws := new(restful.WebService)
	ws.Path("/").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Filter(requestIDFilter)

	ws.Route(ws.POST("/infer").To(s.handleInfer).
		Doc("run MAP inference to completion over a query and initial assignment"))
	ws.Route(ws.POST("/nbest").To(s.handleNBest).
		Doc("rank top-n label candidates per infer node after MAP inference"))
	ws.Route(ws.POST("/showgraph").To(s.handleShowGraph).
		Doc("return the inferred node/edge graph for visualization"))

	s.WebService = ws
}

// Start registers the web service plus the /metrics endpoint and blocks
// serving HTTP.
func (s *Server) Start() error {
	s.CreateWebService()
	restful.DefaultContainer.Add(s.WebService)
	http.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	nlog.Logger().Info("starting nice2predict server", zap.String("addr", addr))
	return http.ListenAndServe(addr, nil)
}

func writeError(resp *restful.Response, procedure string, status int, err error) {
	inferRequestsTotal.WithLabelValues(procedure, "error").Inc()
	nlog.Logger().Warn("request failed", zap.String("procedure", procedure), zap.Error(err))
	if writeErr := resp.WriteError(status, err); writeErr != nil {
		nlog.Logger().Error("failed to write error response", zap.Error(writeErr))
	}
}

func (s *Server) handleInfer(req *restful.Request, resp *restful.Response) {
	timer := time.Now()
	var p QueryPayload
	if err := req.ReadEntity(&p); err != nil {
		writeError(resp, "infer", http.StatusBadRequest, err)
		return
	}
	result, err := s.Engine.Infer(p)
	if err != nil {
		writeError(resp, "infer", http.StatusBadRequest, err)
		return
	}
	inferRequestsTotal.WithLabelValues("infer", "ok").Inc()
	inferDurationSeconds.WithLabelValues("infer").Observe(time.Since(timer).Seconds())
	if err := resp.WriteAsJson(result); err != nil {
		nlog.Logger().Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) handleNBest(req *restful.Request, resp *restful.Response) {
	timer := time.Now()
	var p NBestRequest
	if err := req.ReadEntity(&p); err != nil {
		writeError(resp, "nbest", http.StatusBadRequest, err)
		return
	}
	result, err := s.Engine.NBest(p.QueryPayload, p.N)
	if err != nil {
		writeError(resp, "nbest", http.StatusBadRequest, err)
		return
	}
	inferRequestsTotal.WithLabelValues("nbest", "ok").Inc()
	inferDurationSeconds.WithLabelValues("nbest").Observe(time.Since(timer).Seconds())
	if err := resp.WriteAsJson(result); err != nil {
		nlog.Logger().Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) handleShowGraph(req *restful.Request, resp *restful.Response) {
	timer := time.Now()
	var p QueryPayload
	if err := req.ReadEntity(&p); err != nil {
		writeError(resp, "showgraph", http.StatusBadRequest, err)
		return
	}
	result, err := s.Engine.ShowGraph(p)
	if err != nil {
		writeError(resp, "showgraph", http.StatusBadRequest, err)
		return
	}
	inferRequestsTotal.WithLabelValues("showgraph", "ok").Inc()
	inferDurationSeconds.WithLabelValues("showgraph").Observe(time.Since(timer).Seconds())
	if err := resp.WriteAsJson(result); err != nil {
		nlog.Logger().Error("failed to write response", zap.Error(err))
	}
}
