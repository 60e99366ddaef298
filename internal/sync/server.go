package sync

import (
	"bufio"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"

	"bookshelf/pkg/logging"
)

// Server accepts TCP watchers and registers them with the hub. Incoming
// bytes are read and discarded.
type Server struct {
	Addr string
	Hub  *Hub

	logger *zap.Logger
	mu     sync.Mutex
	ln     net.Listener
}

func NewServer(addr string, hub *Hub, logger *zap.Logger) *Server {
	return &Server{Addr: addr, Hub: hub, logger: logging.OrNop(logger)}
}

// Listen binds the address so binding errors surface before serving.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.logger.Info("tcp change feed listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// ListenAddr is the bound address, nil before Listen.
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run serves until Close. It calls Listen first if needed.
func (s *Server) Run() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		ln = s.ln
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("tcp accept", zap.Error(err))
			continue
		}

		s.Hub.Welcome(conn)
		s.Hub.Add(conn)
		s.logger.Info("tcp client connected", zap.String("addr", conn.RemoteAddr().String()))

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.logger.Info("tcp client disconnected", zap.String("addr", c.RemoteAddr().String()))
			}()

			sc := bufio.NewScanner(c)
			for sc.Scan() {
				// ignore incoming lines
			}
		}(conn)
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
