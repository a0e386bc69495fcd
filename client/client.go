package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	GatewayAddr string `env:"GATEWAY_ADDR,default=ws://localhost:8080/ws"`
	RoomID      string `env:"ROOM_ID,default=lobby"`
	Username    string `env:"USERNAME,default=anonymous"`
}

type frame struct {
	Type    string  `json:"type"`
	Payload payload `json:"payload,omitempty"`
	Message string  `json:"message,omitempty"`
}

type payload struct {
	RoomID     string `json:"roomId,omitempty"`
	Message    string `json:"message,omitempty"`
	SenderName string `json:"senderName,omitempty"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v", err)
	}
	os.Exit(code)
}

// run handles the WebSocket client lifecycle, configuration loading, and the
// read/write loops. This pattern ensures clean resource management and error
// propagation.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Establish the connection to the gateway.
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.GatewayAddr, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to gateway at %s: %w", config.GatewayAddr, err)
	}
	defer func() {
		color.Gray.Println("Closing connection...")
		_ = conn.Close()
	}()

	// 4. Join the configured room.
	join := frame{Type: "join", Payload: payload{RoomID: config.RoomID, SenderName: config.Username}}
	if err := conn.WriteJSON(join); err != nil {
		return exitRuntime, fmt.Errorf("failed to join room %s: %w", config.RoomID, err)
	}

	color.Green.Printf(">>> Connected to %s as %s! Room %q (Ctrl+C to quit)...\n",
		config.GatewayAddr, config.Username, config.RoomID)

	// 5. Reception loop, one goroutine per direction.
	done := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			var f frame
			if err := json.Unmarshal(data, &f); err != nil {
				color.Red.Printf("Unreadable frame: %s\n", data)
				continue
			}
			switch f.Type {
			case "chat":
				color.Cyan.Printf("[%s] %s: %s\n",
					time.Now().Format(time.TimeOnly), f.Payload.SenderName, f.Payload.Message)
			case "error":
				color.Red.Printf("Server rejected: %s\n", f.Message)
			default:
				color.Gray.Printf("Unknown frame type %q\n", f.Type)
			}
		}
	}()

	// 6. Emission loop reading stdin lines as chat messages.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			chat := frame{Type: "chat", Payload: payload{
				RoomID:     config.RoomID,
				Message:    text,
				SenderName: config.Username,
			}}
			if err := conn.WriteJSON(chat); err != nil {
				done <- err
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		color.Gray.Println("Stopping client...")
		return exitOK, nil
	case err := <-done:
		if ctx.Err() != nil {
			return exitOK, nil
		}
		return exitRuntime, fmt.Errorf("connection error: %w", err)
	}
}
