// Command cliplinkd is the cliplink server: it listens for TCP connections,
// runs the key-exchange handshake on each, and serves copy/paste commands
// against the configured clip repository.
package main

import (
	"errors"
	"flag"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/cliplink/config"
	"github.com/opd-ai/cliplink/conn"
	"github.com/opd-ai/cliplink/repository"
	"github.com/opd-ai/cliplink/session"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	if err := cfg.ApplyEnv(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log level")
	}
	logrus.SetLevel(level)

	repo, cleanup, err := newRepository(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open repository backend")
	}
	defer cleanup()

	listener, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		logrus.WithError(err).WithField("addr", cfg.ListenAddr()).Fatal("failed to listen")
	}

	logrus.WithFields(logrus.Fields{
		"addr":    listener.Addr().String(),
		"backend": cfg.Backend,
	}).Info("cliplinkd listening")

	acceptLoop(listener, repo)
}

func newRepository(cfg *config.Server) (repository.Repository, func(), error) {
	switch cfg.Backend {
	case config.BackendEtcd:
		repo, err := repository.NewEtcd(cfg.EtcdEndpoints)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { repo.Close() }, nil
	default:
		return repository.NewMemory(), func() {}, nil
	}
}

// acceptLoop hands each accepted connection to its own goroutine. A failure
// on one connection never affects the others or the loop itself.
func acceptLoop(listener net.Listener, repo repository.Repository) {
	for {
		stream, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logrus.WithError(err).Error("accept failed")
			continue
		}
		go handle(stream, repo)
	}
}

// handle runs one connection to completion: handshake, then the session
// command loop. The socket and the session key are released on return.
func handle(stream net.Conn, repo repository.Repository) {
	defer stream.Close()

	log := logrus.WithField("remote_addr", stream.RemoteAddr().String())
	log.Info("incoming connection")

	ack, err := conn.NewServerConn(stream).ReceiveIdentity()
	if err != nil {
		log.WithError(err).Warn("handshake failed")
		return
	}

	secure, err := ack.SendSessionKey()
	if err != nil {
		log.WithError(err).Warn("handshake failed")
		return
	}

	if err := session.New(secure, repo).Run(); err != nil {
		log.WithError(err).Warn("session ended with error")
		return
	}
	log.Info("session ended")
}
