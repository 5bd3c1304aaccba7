package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/classes-lms/roomchat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("addr", "ws://localhost:8080/ws/chat", "WebSocket prefix")
	user := flag.String("user", "tester", "display name sent with the message; empty for Anonymous")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	addr := strings.TrimRight(*base, "/") + "/" + url.PathEscape(*room) + "/"
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	msg := *text
	if err := wsjson.Write(ctx, conn, proto.Inbound{Message: &msg, Username: *user}); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	// Other members may be talking; wait for our own echo.
	for {
		var out proto.Outbound
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("[%s] %s: %s\n", out.Timestamp, out.Username, out.Message)
		if out.Message == strings.TrimSpace(msg) {
			return nil
		}
	}
}
