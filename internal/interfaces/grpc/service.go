package grpc_interface

import (
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"
	pb "github.com/vulpemventures/coinpay/api-spec/go/coinpay/v1"
	appconfig "github.com/vulpemventures/coinpay/internal/app-config"
	grpc_handler "github.com/vulpemventures/coinpay/internal/interfaces/grpc/handler"
	grpc_interceptor "github.com/vulpemventures/coinpay/internal/interfaces/grpc/interceptor"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

var (
	tlsKeyFile        = "key.pem"
	tlsCertFile       = "cert.pem"
	serialNumberLimit = new(big.Int).Lsh(big.NewInt(1), 128)
)

type service struct {
	config                   ServiceConfig
	appConfig                *appconfig.AppConfig
	grpcServer               *grpc.Server
	chCloseStreamConnections chan (struct{})

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewService(config ServiceConfig, appConfig *appconfig.AppConfig) (*service, error) {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("service: %s", format)
		log.Infof(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("service: %s", format)
		log.WithError(err).Warnf(format, a...)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	if !config.insecure() {
		if err := generateTLSKeyPair(
			config.TLSLocation, config.ExtraIPs, config.ExtraDomains,
		); err != nil {
			return nil, fmt.Errorf("error while creating TLS keypair: %s", err)
		}
		logFn("created TLS keypair in path %s", config.TLSLocation)
	}
	chCloseStreamConnections := make(chan struct{})
	return &service{
		config, appConfig, nil, chCloseStreamConnections, logFn, warnFn,
	}, nil
}

func (s *service) Start() error {
	if err := s.appConfig.LedgerClient().Start(); err != nil {
		return err
	}
	s.log("started ledger client")

	srv, err := s.start()
	if err != nil {
		s.appConfig.LedgerClient().Stop()
		return err
	}

	s.log("start listening on %s", s.config.address())

	s.grpcServer = srv
	return nil
}

func (s *service) Stop() {
	s.stop()
	s.log("shutdown")
}

func (s *service) start() (*grpc.Server, error) {
	grpcConfig := []grpc.ServerOption{
		grpc_interceptor.UnaryInterceptor(), grpc_interceptor.StreamInterceptor(),
	}
	if !s.config.insecure() {
		tlsConfig, err := s.config.tlsConfig()
		if err != nil {
			return nil, err
		}
		grpcConfig = append(grpcConfig, grpc.Creds(credentials.NewTLS(tlsConfig)))
	}

	lis, err := s.config.listener()
	if err != nil {
		return nil, err
	}

	grpcServer := grpc.NewServer(grpcConfig...)

	coinHandler := grpc_handler.NewCoinHandler(s.appConfig.CoinService())
	paymentHandler := grpc_handler.NewPaymentHandler(s.appConfig.PaymentService())
	notifyHandler := grpc_handler.NewNotificationHandler(
		s.appConfig.NotificationService(), s.chCloseStreamConnections,
	)

	pb.RegisterCoinServiceServer(grpcServer, coinHandler)
	pb.RegisterPaymentServiceServer(grpcServer, paymentHandler)
	pb.RegisterNotificationServiceServer(grpcServer, notifyHandler)
	s.log("registered coin handler on public interface")
	s.log("registered payment handler on public interface")
	s.log("registered notification handler on public interface")

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			s.warn(err, "grpc server stopped unexpectedly")
		}
	}()

	return grpcServer, nil
}

func (s *service) stop() {
	close(s.chCloseStreamConnections)
	s.log("closed stream connections")

	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
		s.log("stopped grpc server")
	}

	s.appConfig.LedgerClient().Stop()
	s.log("stopped ledger client")
	s.appConfig.RepoManager().Close()
	s.log("closed connection with db")
}
