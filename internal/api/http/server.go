package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"teleplay/internal/domain"
	"teleplay/internal/metrics"
	"teleplay/internal/remote"
	"teleplay/internal/transfer"
	"teleplay/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type HistoryStore interface {
	Record(ctx context.Context, item domain.MediaItem)
	List(ctx context.Context) []domain.HistoryEntry
	Remove(ctx context.Context, id domain.MediaID) error
}

type DownloadIndex interface {
	ListAll(ctx context.Context) ([]domain.DownloadRecord, error)
	Lookup(ctx context.Context, title string) (domain.DownloadRecord, bool)
	Delete(ctx context.Context, location string) error
}

type TransferController interface {
	Start(ctx context.Context, source, title string, onProgress transfer.ProgressFunc) (domain.TransferState, error)
	Cancel() error
	State() domain.TransferState
}

type Catalog interface {
	Search(ctx context.Context, query string) ([]remote.SearchResult, error)
	Video(ctx context.Context, id int64) (remote.VideoDetails, error)
	Channel(ctx context.Context, id int64) (remote.Channel, error)
	ChannelContent(ctx context.Context, id int64) ([]remote.ContentItem, error)
	Subscriptions(ctx context.Context, userID string) ([]remote.Channel, error)
	Subscribe(ctx context.Context, userID string, channelID int64) error
	Login(ctx context.Context, email, password string) (remote.Credentials, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) error
	Register(ctx context.Context, name, email, phone, password string) (remote.Credentials, error)
}

type CredentialStore interface {
	Save(ctx context.Context, creds remote.Credentials) error
	Load(ctx context.Context) (remote.Credentials, error)
	Clear(ctx context.Context) error
}

type OpenMediaUseCase interface {
	Execute(ctx context.Context, input usecase.OpenMediaInput) (usecase.OpenMediaResult, error)
}

type Server struct {
	history        HistoryStore
	downloads      DownloadIndex
	transfers      TransferController
	catalog        Catalog
	credentials    CredentialStore
	openMedia      OpenMediaUseCase
	dataDir        string
	allowedOrigins []string
	rateRPS        float64
	rateBurst      int
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
}

type ServerOption func(*Server)

func WithHistory(store HistoryStore) ServerOption {
	return func(s *Server) {
		s.history = store
	}
}

func WithDownloads(index DownloadIndex) ServerOption {
	return func(s *Server) {
		s.downloads = index
	}
}

func WithTransfers(ctrl TransferController) ServerOption {
	return func(s *Server) {
		s.transfers = ctrl
	}
}

func WithCatalog(catalog Catalog) ServerOption {
	return func(s *Server) {
		s.catalog = catalog
	}
}

func WithCredentials(store CredentialStore) ServerOption {
	return func(s *Server) {
		s.credentials = store
	}
}

func WithOpenMedia(uc OpenMediaUseCase) ServerOption {
	return func(s *Server) {
		s.openMedia = uc
	}
}

// WithDataDir enables /files/ serving of completed downloads out of dataDir.
func WithDataDir(dataDir string) ServerOption {
	return func(s *Server) {
		s.dataDir = strings.TrimSpace(dataDir)
		if s.dataDir != "" {
			if abs, err := filepath.Abs(s.dataDir); err == nil {
				s.dataDir = abs
			}
			s.dataDir = filepath.Clean(s.dataDir)
		}
	}
}

// WithAllowedOrigins configures the CORS allowed origins whitelist.
// When empty (default), any origin is permitted (development mode).
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		s.rateRPS = rps
		s.rateBurst = burst
	}
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		rateRPS:   100,
		rateBurst: 200,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/history/", s.handleHistoryByID)
	mux.HandleFunc("/downloads", s.handleDownloads)
	mux.HandleFunc("/downloads/active", s.handleDownloadActive)
	mux.HandleFunc("/downloads/cancel", s.handleDownloadCancel)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/videos/", s.handleVideoByID)
	mux.HandleFunc("/channels/", s.handleChannels)
	mux.HandleFunc("/subscriptions", s.handleSubscriptions)
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/otp/send", s.handleSendOTP)
	mux.HandleFunc("/auth/otp/verify", s.handleVerifyOTP)
	mux.HandleFunc("/auth/signup", s.handleSignup)
	mux.HandleFunc("/auth/logout", s.handleLogout)
	mux.HandleFunc("/files/", s.handleFiles)
	mux.HandleFunc("/internal/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "teleplay-companion",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/internal/health" && !strings.HasPrefix(p, "/files/")
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(s.rateRPS, s.rateBurst, metricsMiddleware(corsMiddleware(s.allowedOrigins, traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.wsHub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.wsHub.register <- client
	go client.writePump()
	go client.readPump()
}

// BroadcastTransferState pushes a transfer state snapshot to all WebSocket
// clients and keeps the transfer gauges current. Wire it to the controller's
// OnState hook.
func (s *Server) BroadcastTransferState(state domain.TransferState) {
	metrics.TransferProgress.Set(state.Progress)
	switch state.Status {
	case domain.TransferCompleted:
		metrics.TransfersCompletedTotal.Inc()
	case domain.TransferCancelled:
		metrics.TransfersCancelledTotal.Inc()
	case domain.TransferFailed:
		metrics.TransfersFailedTotal.Inc()
	}
	if s.wsHub != nil {
		s.wsHub.BroadcastTransferState(state)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.dataDir == "" {
		writeError(w, http.StatusNotImplemented, "not_configured", "file serving not configured")
		return
	}
	rel := strings.TrimPrefix(r.URL.Path, "/files/")
	path, err := resolveDataFilePath(s.dataDir, rel)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid file path")
		return
	}
	http.ServeFile(w, r, path)
}

// Close shuts down the WebSocket hub, disconnecting all clients.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}
