package control

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/dawnd/internal/adapters/reporting"
	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/replication"
	"github.com/lcalzada-xor/dawnd/internal/core/session"
	"github.com/lcalzada-xor/dawnd/internal/core/store"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dawn_control_requests_total",
	Help: "Total control-surface HTTP requests by route and status.",
}, []string{"route", "status"})

// Server is the HTTP+JSON control surface (C7), grounded on the
// teacher's web/server.Server bootstrap/Run/shutdown shape.
type Server struct {
	Addr string

	Probes  *store.ProbeStore
	Clients *store.ClientStore
	APs     *store.APStore
	MACs    *store.MACAllowList
	Weights func() domain.Weights
	Sessions *session.Manager
	Peers    *replication.Manager
	Reload   func() error

	WS  *WSHub
	pdf *reporting.PDFExporter

	srv    *http.Server
	logger *slog.Logger
}

func NewServer(addr string, probes *store.ProbeStore, clients *store.ClientStore, aps *store.APStore, macs *store.MACAllowList, weights func() domain.Weights, sessions *session.Manager, peers *replication.Manager, reload func() error, logger *slog.Logger) *Server {
	return &Server{
		Addr: addr, Probes: probes, Clients: clients, APs: aps, MACs: macs,
		Weights: weights, Sessions: sessions, Peers: peers, Reload: reload,
		WS: NewWSHub(logger), pdf: reporting.NewPDFExporter(), logger: logger,
	}
}

// Run starts the HTTP server and the websocket hub's broadcast loop,
// and blocks until ctx is cancelled, matching the teacher's Run shape.
func (s *Server) Run(ctx context.Context) error {
	go s.WS.Run(ctx, s.Probes, s.APs, s.Weights)

	router := mux.NewRouter()
	router.HandleFunc("/dawn/add_mac", s.handleAddMAC).Methods(http.MethodPost)
	router.HandleFunc("/dawn/hearing_map", s.handleHearingMap).Methods(http.MethodGet)
	router.HandleFunc("/dawn/network", s.handleNetwork).Methods(http.MethodGet)
	router.HandleFunc("/dawn/network.pdf", s.handleNetworkPDF).Methods(http.MethodGet)
	router.HandleFunc("/dawn/reload_config", s.handleReloadConfig).Methods(http.MethodPost)
	router.HandleFunc("/dawn/ws", s.WS.HandleWebSocket)
	router.Handle("/metrics", promhttp.Handler())

	instrumented := otelhttp.NewHandler(router, "dawn-control")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumented,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("control server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("control server shutdown error: %v", err)
		}
	}()

	log.Printf("control server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) localBSSIDs() map[domain.MAC]bool {
	local := make(map[domain.MAC]bool)
	for _, hs := range s.Sessions.Sessions() {
		if hs.BSSID != "" {
			local[hs.BSSID] = true
		}
	}
	return local
}

func writeJSON(w http.ResponseWriter, route string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		requestsTotal.WithLabelValues(route, "error").Inc()
		return
	}
	requestsTotal.WithLabelValues(route, "ok").Inc()
}

func (s *Server) handleHearingMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "hearing_map", HearingMap(s.Probes, s.APs, s.Weights()))
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, "network", Network(s.Clients, s.APs, s.Probes, s.localBSSIDs()))
}

func (s *Server) handleNetworkPDF(w http.ResponseWriter, r *http.Request) {
	network := Network(s.Clients, s.APs, s.Probes, s.localBSSIDs())
	data, err := s.pdf.ExportNetworkOverview(network, time.Now())
	if err != nil {
		s.logger.Error("network.pdf generation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		requestsTotal.WithLabelValues("network_pdf", "error").Inc()
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(data)
	requestsTotal.WithLabelValues("network_pdf", "ok").Inc()
}

type addMACRequest struct {
	Addrs []string `json:"addrs"`
}

// handleAddMAC implements add_mac: union into the allow-list, persist,
// broadcast the newly added addresses to peers (§4.7).
func (s *Server) handleAddMAC(w http.ResponseWriter, r *http.Request) {
	var req addMACRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		requestsTotal.WithLabelValues("add_mac", "bad_request").Inc()
		return
	}

	addrs := make([]domain.MAC, 0, len(req.Addrs))
	for _, raw := range req.Addrs {
		mac, err := domain.ParseMAC(raw)
		if err != nil {
			http.Error(w, "invalid mac address "+raw, http.StatusBadRequest)
			requestsTotal.WithLabelValues("add_mac", "bad_request").Inc()
			return
		}
		addrs = append(addrs, mac)
	}

	added, err := s.MACs.Add(addrs)
	if err != nil {
		s.logger.Error("add_mac persist failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		requestsTotal.WithLabelValues("add_mac", "error").Inc()
		return
	}
	if len(added) > 0 {
		s.Peers.BroadcastAddMAC(r.Context(), added)
	}
	writeJSON(w, "add_mac", map[string]any{"added": added})
}

// handleReloadConfig implements reload_config: it always succeeds to
// the caller even if the reload itself failed, per §7 ("reload_config
// always succeeds to the caller; malformed config falls back to last
// good values").
func (s *Server) handleReloadConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(); err != nil {
		s.logger.Warn("reload_config failed, keeping last good config", "error", err)
	}
	writeJSON(w, "reload_config", map[string]any{"ok": true})
}
