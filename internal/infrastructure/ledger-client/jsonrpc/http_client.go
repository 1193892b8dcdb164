package jsonrpc_ledger

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
)

// httpClient represents a JSON RPC client over HTTP(s).
type httpClient struct {
	serverAddr string
	httpClient *http.Client
	nextId     uint64
}

func newHTTPClient(addr string, tlsConfig *tls.Config) (rpcClient, error) {
	client := &http.Client{}
	if tlsConfig != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsConfig
		client.Transport = transport
	}
	return &httpClient{
		serverAddr: addr,
		httpClient: client,
	}, nil
}

// listen is a no-op, every response is read along with its request.
func (c *httpClient) listen() {}

func (c *httpClient) close() {
	c.httpClient.CloseIdleConnections()
}

func (c *httpClient) call(
	ctx context.Context, method string, params ...interface{},
) (json.RawMessage, error) {
	rpcReq := request{
		JsonRpc: jsonrpcVersion,
		Id:      atomic.AddUint64(&c.nextId, 1),
		Method:  method,
		Params:  append([]interface{}{}, params...),
	}
	payload := &bytes.Buffer{}
	if err := json.NewEncoder(payload).Encode(rpcReq); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.serverAddr, payload,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json;charset=utf-8")
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"method %s failed with status %d: %s",
			method, resp.StatusCode, strings.TrimSpace(string(data)),
		)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if err := rpcResp.error(); err != nil {
		return nil, fmt.Errorf("method %s failed with error: %w", method, err)
	}
	return rpcResp.Result, nil
}
