// Package monitor serves a small HTTP API that lets an operator watch the
// counter and steer it while the demo runs.
package monitor

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/process"

	"powdemo/engine"
	"powdemo/fps"
	"powdemo/gate"
)

// summaryDigits bounds the value digits in a default state response.
const summaryDigits = 64

// Monitor exposes an engine, its pause gate and its frame counter over HTTP.
type Monitor struct {
	eng     *engine.Engine
	gate    *gate.Gate
	fps     *fps.Counter
	session string
	log     zerolog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a monitor. f may be nil, in which case the reported rate is 0.
func New(
	eng *engine.Engine,
	g *gate.Gate,
	f *fps.Counter,
	session string,
	log zerolog.Logger,
) *Monitor {
	return &Monitor{
		eng:     eng,
		gate:    g,
		fps:     f,
		session: session,
		log:     log.With().Str("component", "monitor").Logger(),
	}
}

// Handler returns the API router.
func (m *Monitor) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/state", m.state).Methods(http.MethodGet)
	r.HandleFunc("/api/pause", m.pause).Methods(http.MethodPost)
	r.HandleFunc("/api/continue", m.resume).Methods(http.MethodPost)
	r.HandleFunc("/api/toggle", m.toggle).Methods(http.MethodPost)
	r.HandleFunc("/api/modulus/{n}", m.setModulus).Methods(http.MethodPost)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	return r
}

// Start listens on addr and serves in the background. Port 0 picks a free
// port; the bound address is returned.
func (m *Monitor) Start(addr string) (net.Addr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		return nil, errors.New("monitor already started")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}

	srv := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.server = srv
	m.listener = listener

	m.log.Info().Str("addr", listener.Addr().String()).Msg("monitoring")

	go func() {
		err := srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Error().Err(err).Msg("monitor stopped")
		}
	}()

	return listener.Addr(), nil
}

// Shutdown stops the server started by Start. It is a no-op if the monitor
// is not running.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	srv := m.server
	m.server = nil
	m.listener = nil
	m.mu.Unlock()

	if srv == nil {
		return nil
	}
	return errors.Wrap(srv.Shutdown(ctx), "shutdown monitor")
}

type stateRsp struct {
	Session   string `json:"session,omitempty"`
	Power     string `json:"power"`
	Bits      int    `json:"bits"`
	Digits    int    `json:"digits"`
	Value     string `json:"value,omitempty"`
	ValueHead string `json:"value_head,omitempty"`
	ValueTail string `json:"value_tail,omitempty"`
	Modulus   int    `json:"modulus"`
	Paused    bool   `json:"paused"`
	FPS       int    `json:"fps"`
	Resets    uint64 `json:"resets"`
}

func (m *Monitor) state(w http.ResponseWriter, r *http.Request) {
	st := m.eng.Snapshot()
	sum := engine.Summarize(st.Value, summaryDigits)

	rsp := stateRsp{
		Session:   m.session,
		Power:     st.Power.String(),
		Bits:      st.Value.BitLen(),
		Digits:    sum.Digits,
		Value:     sum.Full,
		ValueHead: sum.Head,
		ValueTail: sum.Tail,
		Modulus:   st.Modulus,
		Paused:    m.gate.Paused(),
		Resets:    st.Resets,
	}
	if m.fps != nil {
		rsp.FPS = m.fps.Rate()
	}
	if full, _ := strconv.ParseBool(r.URL.Query().Get("full")); full && rsp.Value == "" {
		rsp.Value = st.Value.Text(10)
	}

	m.writeJSON(w, http.StatusOK, rsp)
}

type pausedRsp struct {
	Paused bool `json:"paused"`
}

func (m *Monitor) pause(w http.ResponseWriter, _ *http.Request) {
	m.gate.Pause()
	m.log.Info().Msg("paused over http")
	m.writeJSON(w, http.StatusOK, pausedRsp{Paused: true})
}

func (m *Monitor) resume(w http.ResponseWriter, _ *http.Request) {
	m.gate.Resume()
	m.log.Info().Msg("continued over http")
	m.writeJSON(w, http.StatusOK, pausedRsp{Paused: false})
}

func (m *Monitor) toggle(w http.ResponseWriter, _ *http.Request) {
	paused := m.gate.Toggle()
	m.log.Info().Bool("paused", paused).Msg("toggled over http")
	m.writeJSON(w, http.StatusOK, pausedRsp{Paused: paused})
}

type modulusRsp struct {
	Modulus int `json:"modulus"`
}

type errorRsp struct {
	Error string `json:"error"`
}

func (m *Monitor) setModulus(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["n"]

	n, err := engine.ParseModulus(raw)
	if err == nil {
		err = m.eng.SetModulus(n)
	}
	if err != nil {
		m.log.Warn().Err(err).Str("input", raw).Msg("rejected modulus")
		m.writeJSON(w, http.StatusBadRequest, errorRsp{Error: err.Error()})
		return
	}

	m.log.Info().Int("modulus", n).Msg("modulus changed over http")
	m.writeJSON(w, http.StatusOK, modulusRsp{Modulus: n})
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	rsp, err := readResources()
	if err != nil {
		m.log.Error().Err(err).Msg("read resources")
		m.writeJSON(w, http.StatusInternalServerError, errorRsp{Error: err.Error()})
		return
	}
	m.writeJSON(w, http.StatusOK, rsp)
}

func readResources() (resourceRsp, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return resourceRsp{}, errors.Wrap(err, "open process")
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		return resourceRsp{}, errors.Wrap(err, "cpu percent")
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		return resourceRsp{}, errors.Wrap(err, "memory info")
	}

	return resourceRsp{CPUPercent: cpuPercent, MemorySize: mem.RSS}, nil
}

func (m *Monitor) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		m.log.Warn().Err(err).Msg("write response")
	}
}
