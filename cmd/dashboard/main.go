package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chainwatch/chainwatch/internal/client"
	"github.com/chainwatch/chainwatch/internal/config"
	"github.com/chainwatch/chainwatch/internal/tui"
)

func main() {
	wsURL := flag.String("url", "ws://127.0.0.1:8765/ws", "WebSocket URL of the chainwatch server")
	token := flag.String("token", "", "Auth token (if the server requires it)")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	c := client.New(*wsURL, client.Options{
		Token:  *token,
		Policy: client.NewReconnectPolicy(reconnectDelay(*configPath), 0, nil),
	})
	defer c.Close()

	m := tui.New(c)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// reconnectDelay reads the client reconnect interval from the config
// file when one is present.
func reconnectDelay(path string) time.Duration {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return config.Default().Client.ReconnectDelay
	}
	return cfg.Client.ReconnectDelay
}
