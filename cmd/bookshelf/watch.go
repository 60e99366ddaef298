package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const reconnectDelay = time.Second

func newWatchCmd(a *app) *cobra.Command {
	var (
		addr   string
		wsURL  string
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print change events from a running bookshelf server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for {
				var err error
				if wsURL != "" {
					err = watchWS(ctx, wsURL, pretty, a.out)
				} else {
					err = watchTCP(ctx, addr, pretty, a.out)
				}
				if ctx.Err() != nil {
					return nil
				}
				a.logger.Warn("disconnected, reconnecting", zap.Error(err))
				fmt.Fprintf(a.errOut, "[watch] disconnected: %v\n", err)

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(reconnectDelay):
				}
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7070", "TCP change feed address")
	cmd.Flags().StringVar(&wsURL, "ws", "", "websocket URL, e.g. ws://localhost:8080/ws (overrides --addr)")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "pretty print JSON events")
	return cmd
}

// watchTCP prints one session of the line feed. It returns when the server
// hangs up or ctx is done.
func watchTCP(ctx context.Context, addr string, pretty bool, out io.Writer) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printEvent(out, sc.Bytes(), pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func watchWS(ctx context.Context, url string, pretty bool, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return io.EOF
			}
			return err
		}
		printEvent(out, msg, pretty)
	}
}

func printEvent(out io.Writer, line []byte, pretty bool) {
	if !pretty {
		fmt.Fprintln(out, string(line))
		return
	}
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		// not JSON, print raw
		fmt.Fprintln(out, string(line))
		return
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Fprintln(out, string(b))
}
