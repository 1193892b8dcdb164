package grpc_interceptor

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type requestIdKey struct{}

// RequestId returns the id assigned to the request being served, if any.
func RequestId(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey{}).(string)
	return id
}

func unaryLogger(
	ctx context.Context, req interface{}, info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	reqId := uuid.New().String()
	ctx = context.WithValue(ctx, requestIdKey{}, reqId)
	start := time.Now()

	resp, err := handler(ctx, req)

	entry := log.WithFields(log.Fields{
		"request_id": reqId,
		"method":     info.FullMethod,
		"elapsed":    time.Since(start).String(),
	})
	if err != nil {
		entry.WithField("code", status.Code(err).String()).WithError(err).
			Debug("request failed")
		return nil, err
	}
	entry.Debug("request served")
	return resp, nil
}

func streamLogger(
	srv interface{}, stream grpc.ServerStream, info *grpc.StreamServerInfo,
	handler grpc.StreamHandler,
) error {
	reqId := uuid.New().String()
	entry := log.WithFields(log.Fields{
		"request_id": reqId,
		"method":     info.FullMethod,
	})
	entry.Debug("stream opened")

	err := handler(srv, &wrappedStream{stream, reqId})

	if err != nil && status.Code(err) != codes.Canceled {
		entry.WithError(err).Debug("stream closed with error")
		return err
	}
	entry.Debug("stream closed")
	return err
}

type wrappedStream struct {
	grpc.ServerStream
	reqId string
}

func (w *wrappedStream) Context() context.Context {
	return context.WithValue(w.ServerStream.Context(), requestIdKey{}, w.reqId)
}

func recoveryHandler(p interface{}) error {
	log.Errorf("recovered from panic: %v", p)
	return status.Error(codes.Internal, "internal error")
}
