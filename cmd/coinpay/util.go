package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	pb "github.com/vulpemventures/coinpay/api-spec/go/coinpay/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

var (
	maxMsgRecvSize = grpc.MaxCallRecvMsgSize(1 * 1024 * 1024 * 200)
	colorRed       = string("\033[31m")
)

func getCoinClient() (pb.CoinServiceClient, func(), error) {
	conn, err := getClientConn()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() { conn.Close() }
	return pb.NewCoinServiceClient(conn), cleanup, nil
}

func getPaymentClient() (pb.PaymentServiceClient, func(), error) {
	conn, err := getClientConn()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() { conn.Close() }
	return pb.NewPaymentServiceClient(conn), cleanup, nil
}

func getNotificationClient() (pb.NotificationServiceClient, func(), error) {
	conn, err := getClientConn()
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() { conn.Close() }
	return pb.NewNotificationServiceClient(conn), cleanup, nil
}

func getClientConn() (*grpc.ClientConn, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	address, ok := state["rpcserver"]
	if !ok {
		return nil, fmt.Errorf("set rpcserver with `config set rpcserver`")
	}

	opts := []grpc.DialOption{grpc.WithDefaultCallOptions(maxMsgRecvSize)}

	noTLS, _ := strconv.ParseBool(state["no_tls"])
	if noTLS {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		certPath, ok := state["tls_cert_path"]
		if !ok || certPath == "" {
			return nil, fmt.Errorf(
				"missing TLS certificate filepath. Try " +
					"'coinpay config set tls_cert_path path/to/tls/certificate'",
			)
		}

		tlsCreds, err := credentials.NewClientTLSFromFile(certPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS certificate:  %s", err)
		}
		opts = append(opts, grpc.WithTransportCredentials(tlsCreds))
	}

	conn, err := grpc.Dial(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to coinpay daemon: %v", err)
	}
	return conn, nil
}

// printReply prints the reply as json, or the error returned by the daemon.
func printReply(reply interface{}, err error) error {
	if err != nil {
		printErr(err)
		return nil
	}
	return printJSON(reply)
}

func printJSON(msg interface{}) error {
	buf, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %s", err)
	}
	fmt.Println(string(buf))
	return nil
}

func getState() (map[string]string, error) {
	file, err := os.ReadFile(statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		state := make(map[string]string, len(initialState))
		for key, value := range initialState {
			state[key] = value
		}
		if err := writeState(state); err != nil {
			return nil, err
		}
		return state, nil
	}

	data := map[string]string{}
	json.Unmarshal(file, &data)
	return data, nil
}

func setState(partialState map[string]string) error {
	state, err := getState()
	if err != nil {
		return err
	}

	for key, value := range partialState {
		state[key] = value
	}
	return writeState(state)
}

func writeState(state map[string]string) error {
	dir := filepath.Dir(statePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return fmt.Errorf("failed to create directory: %v", err)
		}
	}

	buf, _ := json.MarshalIndent(state, "", "  ")
	if err := os.WriteFile(statePath, buf, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func jsonResponse(msg proto.Message) (string, error) {
	buf, err := protojson.MarshalOptions{Multiline: true, EmitUnpopulated: true}.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal proto message: %s", err)
	}
	return string(buf), nil
}

func printErr(err error) {
	s := status.Convert(err)
	msg := fmt.Sprintf("%s%s", colorRed, capitalize(s.Message()))
	fmt.Fprintln(os.Stderr, msg)
	for _, d := range s.Details() {
		if details, ok := d.(proto.Message); ok {
			if buf, err := jsonResponse(details); err == nil {
				fmt.Fprintln(os.Stderr, buf)
			}
		}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	ss := strings.ToUpper(s[0:1])
	ss += s[1:]
	return ss
}

func formatVersion() string {
	return fmt.Sprintf(
		"\nVersion: %s\nCommit: %s\nDate: %s", version, commit, date,
	)
}
