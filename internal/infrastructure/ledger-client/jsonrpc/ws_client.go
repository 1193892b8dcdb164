package jsonrpc_ledger

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type wsClient struct {
	conn      *websocket.Conn
	nextId    uint64
	chHandler *chHandler
	// gorilla connections support one concurrent writer.
	writeLock *sync.Mutex

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func newWSClient(addr string, tlsConfig *tls.Config) (rpcClient, error) {
	dialer := *websocket.DefaultDialer
	dialer.TLSClientConfig = tlsConfig
	conn, _, err := dialer.Dial(addr, nil)
	if err != nil {
		return nil, err
	}

	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("ledger client: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("ledger client: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	return &wsClient{
		conn:      conn,
		chHandler: newChHandler(),
		writeLock: &sync.Mutex{},
		log:       logFn,
		warn:      warnFn,
	}, nil
}

func (c *wsClient) listen() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, net.ErrClosed) ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			c.warn(err, "connection dropped")
			return
		}

		var resp response
		if err := json.Unmarshal(msg, &resp); err != nil {
			c.warn(err, "failed to parse message from socket")
			continue
		}

		chReports := c.chHandler.getChReportsForReqId(resp.Id)
		if chReports == nil {
			c.log("dropping response for unknown request %d", resp.Id)
			continue
		}
		// the channel is buffered for a single response, duplicates are
		// dropped.
		select {
		case chReports <- resp:
		default:
			c.log("dropping duplicate response for request %d", resp.Id)
		}
	}
}

func (c *wsClient) close() {
	c.writeLock.Lock()
	c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	c.writeLock.Unlock()
	c.conn.Close()
	c.chHandler.clear()
}

func (c *wsClient) call(
	ctx context.Context, method string, params ...interface{},
) (json.RawMessage, error) {
	req := request{
		JsonRpc: jsonrpcVersion,
		Id:      atomic.AddUint64(&c.nextId, 1),
		Method:  method,
		Params:  append([]interface{}{}, params...),
	}
	chResp := c.chHandler.addRequest(req)
	defer c.chHandler.clearRequest(req.Id)

	c.writeLock.Lock()
	err := c.conn.WriteJSON(req)
	c.writeLock.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to send request for method %s: %w", method, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
	}

	select {
	case resp := <-chResp:
		if err := resp.error(); err != nil {
			return nil, fmt.Errorf("method %s failed with error: %w", method, err)
		}
		return resp.Result, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("request timed out")
	}
}
