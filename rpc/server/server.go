package server

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
	"github.com/MilkClouds/SimpleRPyC/rpc/object"
	"github.com/MilkClouds/SimpleRPyC/rpc/serializer"
	"github.com/MilkClouds/SimpleRPyC/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server exposing the default builtin entry
// points. Additional objects can be registered on the returned server's
// namespace before (or while) serving.
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//	s.Namespace().Register("myservice", myModule)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		namespace:  object.Builtins(),
	}
}

type rpcServer struct {
	config      common.ServerConfig
	transport   transport.IRPCServerTransport
	serializer  serializer.IRPCSerializer
	namespace   *object.Namespace
	metricsSrv  *http.Server
	initialized bool
}

// Namespace returns the server's entry-point namespace. Everything a client
// should be able to reach must be registered here.
func (s *rpcServer) Namespace() *object.Namespace {
	return s.namespace
}

// Token returns the handshake token clients must present. It is only valid
// after Serve or Start.
func (s *rpcServer) Token() string {
	return s.config.Token
}

// Addr returns the bound endpoint. It is only valid after Serve or Start.
func (s *rpcServer) Addr() string {
	return s.transport.Addr()
}

// Serve initializes the server and blocks accepting connections until
// Shutdown is called.
func (s *rpcServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Serve()
}

// Start initializes the server and accepts connections in the background.
// Use Addr and Token to reach it and Shutdown to stop it.
func (s *rpcServer) Start() error {
	if err := s.init(); err != nil {
		return err
	}
	go func() {
		if err := s.transport.Serve(); err != nil {
			Logger.Errorf("Serve error: %v", err)
		}
	}()
	return nil
}

// Shutdown stops accepting connections and closes the listener. In-flight
// requests on established connections finish their current response.
func (s *rpcServer) Shutdown() error {
	if s.metricsSrv != nil {
		_ = s.metricsSrv.Close()
	}
	return s.transport.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *rpcServer) init() error {
	if s.initialized {
		return fmt.Errorf("server already started")
	}
	s.initialized = true

	// Init logger
	common.InitLoggers(s.config.LogLevel)

	// A server never runs without a token. Generate one when the config
	// leaves it empty and log it so clients can connect.
	if s.config.Token == "" {
		token, err := GenerateToken()
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}
		s.config.Token = token
		Logger.Infof("Generated handshake token: %s", token)
	}

	// Every connection gets its own execution context so references can
	// never leak between clients
	s.transport.RegisterSessionFactory(func() transport.SessionHandler {
		return NewExecutor(s.namespace, s.serializer)
	})

	if err := s.transport.Listen(s.config); err != nil {
		return err
	}

	if s.config.MetricsEndpoint != "" {
		s.serveMetrics()
	}

	Logger.Infof("Exposing entry points: %v", s.namespace.Names())
	return nil
}

// serveMetrics exposes Prometheus metrics on a separate HTTP endpoint.
func (s *rpcServer) serveMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	s.metricsSrv = &http.Server{Addr: s.config.MetricsEndpoint, Handler: mux}

	go func() {
		Logger.Infof("Serving metrics on http://%s/metrics", s.config.MetricsEndpoint)
		if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			Logger.Errorf("Metrics server error: %v", err)
		}
	}()
}

// GenerateToken creates a cryptographically random handshake token.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
