package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"galleria/internal/daemon"
	"galleria/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Galleria", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "ipc")
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via ipc")
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.GalleryCount = status.GalleryCount
	resp.StageCounts = status.StageCounts
	resp.TakenCount = status.TakenCount
	return nil
}

func (s *service) Health(_ HealthRequest, resp *HealthResponse) error {
	health := s.daemon.Health(s.ctx)
	resp.Healthy = health.Healthy
	resp.Detail = health.Detail
	return nil
}

func (s *service) GalleryList(_ GalleryListRequest, resp *GalleryListResponse) error {
	views, err := s.daemon.ListGalleries(s.ctx)
	if err != nil {
		return err
	}
	resp.Galleries = views
	return nil
}

func (s *service) GalleryAdd(req GalleryAddRequest, resp *GalleryAddResponse) error {
	view, err := s.daemon.RegisterGallery(s.ctx, req.Gallery)
	if err != nil {
		return err
	}
	resp.Gallery = view
	s.log().Info("gallery registered via ipc",
		logging.String(logging.FieldGalleryID, view.ID))
	return nil
}

func (s *service) GalleryDescribe(req GalleryDescribeRequest, resp *GalleryDescribeResponse) error {
	view, err := s.daemon.GetGallery(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Gallery = view
	return nil
}

func (s *service) GalleryUpdate(req GalleryUpdateRequest, resp *GalleryUpdateResponse) error {
	view, err := s.daemon.UpdateGallery(s.ctx, req.ID, req.Gallery)
	if err != nil {
		return err
	}
	resp.Gallery = view
	s.log().Info("gallery updated via ipc",
		logging.String(logging.FieldGalleryID, view.ID))
	return nil
}

func (s *service) GalleryRemove(req GalleryRemoveRequest, resp *GalleryRemoveResponse) error {
	if err := s.daemon.RemoveGallery(s.ctx, req.ID); err != nil {
		return err
	}
	resp.Removed = true
	s.log().Info("gallery removed via ipc",
		logging.String(logging.FieldGalleryID, req.ID))
	return nil
}
