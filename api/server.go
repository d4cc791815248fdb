package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ddb-capacity-reporter/report"
	"ddb-capacity-reporter/types"
)

// Runner executes one report run, optionally filtered to a single table,
// emitting progress to sink.
type Runner func(ctx context.Context, table string, sink report.Sink) (report.Summary, error)

type Server struct {
	logger     *zerolog.Logger
	config     types.Config
	run        Runner
	broadcast  chan types.Broadcast
	wsClients  map[*websocket.Conn]interface{}
	connectCh  chan *websocket.Conn
	closeCh    chan *websocket.Conn
	wg         *sync.WaitGroup
	shutdownCh chan struct{}
	startOnce  sync.Once
	stopOnce   sync.Once

	// runMu serializes report runs so one sequential pass is in flight at a time.
	runMu    sync.Mutex
	latestMu sync.Mutex
	latest   *report.Summary
	srvMu    sync.Mutex
	httpSrv  *http.Server
}

func New(config types.Config, logger *zerolog.Logger, run Runner) *Server {
	return &Server{
		logger:     logger,
		config:     config,
		run:        run,
		broadcast:  make(chan types.Broadcast),
		wsClients:  make(map[*websocket.Conn]interface{}),
		connectCh:  make(chan *websocket.Conn),
		closeCh:    make(chan *websocket.Conn),
		wg:         &sync.WaitGroup{},
		shutdownCh: make(chan struct{}),
	}
}

func (api *Server) Serve(port uint) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	api.srvMu.Lock()
	api.httpSrv = srv
	api.srvMu.Unlock()

	api.logger.Info().Msgf("Listening on port %d", port)
	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}

	// Wait for all goroutines to finish before exiting
	api.wg.Wait()
	return nil
}

// Handler returns the router and starts the goroutine owning websocket clients.
func (api *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api.startOnce.Do(func() {
		api.wg.Add(1)
		go api.manageConnections()
	})

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			api.logger.Error().Err(err).Msg("Error upgrading connection")
			return
		}
		api.logger.Info().Msgf("Client connected: %s", conn.RemoteAddr())
		select {
		case api.connectCh <- conn:
			go api.handleClientMessages(conn)
		case <-api.shutdownCh:
			_ = conn.Close()
		}
	})

	r.HandleFunc("/report", api.handleReport).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return r
}

type reportResponse struct {
	Summary report.Summary `json:"summary"`
	Error   string         `json:"error,omitempty"`
}

func (api *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	summary, err := api.runReport(r.Context(), r.URL.Query().Get("table"))

	resp := reportResponse{Summary: summary}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		api.logger.Error().Err(err).Msg("Error encoding report response")
	}
}

func (api *Server) runReport(ctx context.Context, table string) (report.Summary, error) {
	api.runMu.Lock()
	defer api.runMu.Unlock()

	api.logger.Info().Str("TableName", table).Msg("Starting report run")
	summary, err := api.run(ctx, table, &broadcastSink{server: api})
	if err != nil {
		api.logger.Error().Err(err).Msg("Report run failed")
	}

	api.latestMu.Lock()
	api.latest = &summary
	api.latestMu.Unlock()
	api.publish(types.Broadcast{MessageType: "summary", Data: summary})
	return summary, err
}

func (api *Server) publish(b types.Broadcast) {
	select {
	case api.broadcast <- b:
	case <-api.shutdownCh:
	}
}

func (api *Server) manageConnections() {
	defer api.wg.Done()

	for {
		select {
		case <-api.shutdownCh:
			api.cleanupAndReturn()
			return
		case broadcast := <-api.broadcast:
			api.logger.Debug().Str("MessageType", broadcast.MessageType).Msg("Received broadcast")
			jsonData, err := json.Marshal(broadcast)
			if err != nil {
				api.logger.Error().Err(err).Msg("Error marshaling Broadcast")
				continue
			}
			for conn := range api.wsClients {
				api.broadcastData(jsonData, conn)
			}
		case conn := <-api.connectCh:
			api.wsClients[conn] = struct{}{}
			api.sendConfiguration(conn)
			api.sendLatestSummary(conn)
		case conn := <-api.closeCh:
			delete(api.wsClients, conn)
		}
	}
}

func (api *Server) cleanupAndReturn() {
	for conn := range api.wsClients {
		if err := conn.Close(); err != nil {
			api.logger.Error().Err(err).Msg("Error closing connection")
		}
		delete(api.wsClients, conn)
	}
}

func (api *Server) broadcastData(jsonData []byte, conn *websocket.Conn) {
	if err := conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
		api.logger.Error().Err(err).Msg("Failed to write message")
		if err := conn.Close(); err != nil {
			api.logger.Error().Err(err).Msg("Failed to close connection")
		}
		delete(api.wsClients, conn)
	}
}

func (api *Server) sendConfiguration(conn *websocket.Conn) {
	jsonData, err := json.Marshal(types.Broadcast{MessageType: "config", Data: api.config})
	if err != nil {
		api.logger.Error().Err(err).Msg("Error marshaling config")
		return
	}
	api.broadcastData(jsonData, conn)
}

func (api *Server) sendLatestSummary(conn *websocket.Conn) {
	api.latestMu.Lock()
	latest := api.latest
	api.latestMu.Unlock()
	if latest == nil {
		return
	}

	jsonData, err := json.Marshal(types.Broadcast{MessageType: "summary", Data: latest})
	if err != nil {
		api.logger.Error().Err(err).Msg("Error marshaling latest summary")
		return
	}
	api.broadcastData(jsonData, conn)
}

func (api *Server) handleClientMessages(conn *websocket.Conn) {
	defer func() {
		select {
		case api.closeCh <- conn:
		case <-api.shutdownCh:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				api.logger.Error().Err(err).Msg("Error reading WebSocket message")
			}
			break
		}

		api.handleMessage(message)
	}
}

type runRequest struct {
	Table string `json:"table"`
}

func (api *Server) handleMessage(message []byte) {
	var received struct {
		MessageType string          `json:"message_type"`
		Data        json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &received); err != nil {
		api.logger.Error().Err(err).Msg("Error unmarshalling WebSocket message")
		return
	}

	switch received.MessageType {
	case "run_report":
		var req runRequest
		if len(received.Data) > 0 {
			if err := json.Unmarshal(received.Data, &req); err != nil {
				api.logger.Error().Err(err).Msg("Failed to decode run_report request")
				return
			}
		}
		_, _ = api.runReport(context.Background(), req.Table)
	default:
		api.logger.Warn().Str("MessageType", received.MessageType).Msg("Received an unsupported message type")
	}
}

func (api *Server) Stop() {
	api.stopOnce.Do(func() {
		api.logger.Info().Msg("Stopping API server")
		close(api.shutdownCh)

		api.srvMu.Lock()
		srv := api.httpSrv
		api.srvMu.Unlock()
		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				api.logger.Error().Err(err).Msg("Error shutting down HTTP server")
			}
		}
	})
}
