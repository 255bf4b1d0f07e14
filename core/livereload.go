package core

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

const LiveReloadPath = "/__homepages_reload"

const liveReloadScript = `<script>(function(){var s=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+"` +
	LiveReloadPath + `");s.onmessage=function(e){if(e.data==="reload"){location.reload();}};})();</script>`

type LiveReloaderInterface interface {
	BroadcastReload()
	Handler(http.ResponseWriter, *http.Request)
}

type LiveReloader struct {
	clients  map[*websocket.Conn]bool
	lock     sync.Mutex
	upgrader websocket.Upgrader
}

var NewLiveReloader = func() LiveReloaderInterface {
	return &LiveReloader{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (lr *LiveReloader) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := lr.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	lr.lock.Lock()
	lr.clients[conn] = true
	lr.lock.Unlock()

	go func() {
		defer func() {
			lr.lock.Lock()
			delete(lr.clients, conn)
			lr.lock.Unlock()
			conn.Close()
		}()

		for {
			if _, _, err := conn.NextReader(); err != nil {
				break
			}
		}
	}()
}

func (lr *LiveReloader) BroadcastReload() {
	lr.lock.Lock()
	defer lr.lock.Unlock()

	for conn := range lr.clients {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("reload")); err != nil {
			conn.Close()
			delete(lr.clients, conn)
		}
	}
}

// Clients reports the number of connected browsers.
func (lr *LiveReloader) Clients() int {
	lr.lock.Lock()
	defer lr.lock.Unlock()

	return len(lr.clients)
}

// InjectLiveReload puts the reload script before the closing body tag.
// Bodies without one (plain text pages) are returned as is.
func InjectLiveReload(body []byte) []byte {
	page := string(body)
	i := strings.LastIndex(strings.ToLower(page), "</body>")
	if i == -1 {
		return body
	}
	return []byte(page[:i] + liveReloadScript + page[i:])
}
