package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nvall/meetscribe/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 20,
	WriteBufferSize: 1 << 16,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// command is the client-to-server envelope. Data carries base64 audio via
// encoding/json's []byte handling.
type command struct {
	Type             string `json:"type"`
	SessionID        string `json:"session_id"`
	Sequence         int64  `json:"sequence"`
	Data             []byte `json:"data"`
	Text             string `json:"text"`
	IsFinal          bool   `json:"is_final"`
	ClientTranscript string `json:"client_transcript"`
	OwnerEmail       string `json:"owner_email"`
}

func registerWSRoute(mux *http.ServeMux, coord *session.Coordinator) {
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("ws upgrade error: %v", err)
			return
		}
		defer func() { _ = wsConn.Close() }()

		client := newClientConn()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.send {
				if err := wsConn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		client.sendWelcome()
		readLoop(wsConn, coord, client)

		// Stop the writer but leave any in-flight finalization running;
		// its results land in storage and the client catches up over the
		// read API.
		client.Detach()
		<-done
	})
}

func readLoop(wsConn *websocket.Conn, coord *session.Coordinator, client *clientConn) {
	// The most recent session this connection started. Commands that omit
	// session_id bind to it, matching clients that only juggle one
	// recording at a time.
	boundID := ""

	for {
		var cmd command
		if err := wsConn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read error: %v", err)
			}
			return
		}

		id := cmd.SessionID
		if id == "" {
			id = boundID
		}

		switch cmd.Type {
		case "start_session":
			boundID = coord.Start(cmd.SessionID, client)
		case "audio_chunk":
			if id == "" {
				client.sendError("audio_chunk without a session")
				continue
			}
			coord.IngestChunk(id, cmd.Sequence, cmd.Data, client)
		case "transcript_fragment":
			if id == "" {
				continue
			}
			coord.Fragment(id, cmd.Text, cmd.IsFinal, client)
		case "pause_session":
			if id != "" {
				coord.Pause(id, client)
			}
		case "resume_session":
			if id != "" {
				coord.Resume(id, client)
			}
		case "stop_session":
			if id == "" {
				client.sendError("stop_session without a session")
				continue
			}
			coord.Stop(id, cmd.ClientTranscript, cmd.OwnerEmail, client)
		case "ping":
			client.sendPong()
		default:
			client.sendError("unknown command: " + cmd.Type)
		}
	}
}
