package fsapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// ProgressMessage is a message on the transfer progress channel.
type ProgressMessage struct {
	Type        string  `json:"type"` // "progress", "complete", "error"
	OperationID string  `json:"operation_id"`
	FileName    string  `json:"file_name"`
	Transferred int64   `json:"transferred"`
	TotalBytes  int64   `json:"total_bytes"`
	Percent     float64 `json:"percent"`
	Message     string  `json:"message,omitempty"`
}

// cancelMessage is sent by the client to abort a long-running operation.
type cancelMessage struct {
	Type        string `json:"type"` // always "cancel"
	OperationID string `json:"operation_id"`
}

// ProgressChannel is a WebSocket connection delivering copy/move progress.
// Messages arrive on C until the channel is closed or the connection drops.
type ProgressChannel struct {
	C chan ProgressMessage

	conn        *websocket.Conn
	mu          sync.Mutex
	stopChan    chan struct{}
	isConnected bool
}

// DialProgress connects to the backend progress channel.
func (c *Client) DialProgress() (*ProgressChannel, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %v", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/fs/progress"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect progress channel: %v", err)
	}

	pc := &ProgressChannel{
		C:           make(chan ProgressMessage, 64),
		conn:        conn,
		stopChan:    make(chan struct{}),
		isConnected: true,
	}
	go pc.readLoop()
	return pc, nil
}

func (pc *ProgressChannel) readLoop() {
	defer close(pc.C)
	for {
		select {
		case <-pc.stopChan:
			return
		default:
		}

		_, data, err := pc.conn.ReadMessage()
		if err != nil {
			pc.mu.Lock()
			pc.isConnected = false
			pc.mu.Unlock()
			return
		}

		var msg ProgressMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("⚠️ Ignoring malformed progress message: %v", err)
			continue
		}

		select {
		case pc.C <- msg:
		case <-pc.stopChan:
			return
		}
	}
}

// Cancel asks the backend to abort the given operation.
func (pc *ProgressChannel) Cancel(operationID string) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if !pc.isConnected {
		return fmt.Errorf("progress channel is closed")
	}
	return pc.conn.WriteJSON(cancelMessage{Type: "cancel", OperationID: operationID})
}

// Close tears down the connection.
func (pc *ProgressChannel) Close() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if !pc.isConnected {
		return
	}
	pc.isConnected = false
	close(pc.stopChan)
	pc.conn.Close()
}
