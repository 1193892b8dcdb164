package jsonrpc_ledger

import (
	"context"
	"encoding/json"
)

type rpcClient interface {
	listen()
	close()
	call(
		ctx context.Context, method string, params ...interface{},
	) (json.RawMessage, error)
}
