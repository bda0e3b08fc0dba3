package netx

import (
	"net/http"
	"sync"

	"github.com/zishang520/socket.io/servers/engine/v3"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"
)

// SocketPath is where the Socket.IO handler is mounted
const SocketPath = "/socket.io/"

// Socket represents a wrapper around the Socket.IO server
type Socket struct {
	sock       *socket.Server
	Namespaces map[string]*Namespace
}

// Initialize configures and creates the Socket.IO server
func (self *Socket) Initialize() {
	opts := socket.DefaultServerOptions()
	opts.SetPath("/socket.io")
	opts.SetTransports(types.NewSet(
		engine.Polling,   // HTTP long-polling transport
		engine.WebSocket, // WebSocket transport for real-time communication
	))
	opts.SetMaxHttpBufferSize(1e6)
	self.sock = socket.NewServer(nil, opts)
	self.Namespaces = make(map[string]*Namespace)
}

// AddNamespace creates a new Socket.IO namespace and adds it to the server
func (self *Socket) AddNamespace(name string) {
	namespace := &Namespace{namespace: self.sock.Of(name, nil)}
	namespace.Initialize()
	self.Namespaces[name] = namespace
}

// GetNamespace returns the desired namespace, or nil when it was never added
func (self *Socket) GetNamespace(name string) *Namespace {
	return self.Namespaces[name]
}

// Handler returns an HTTP handler for the Socket.IO server
func (self *Socket) Handler() http.Handler {
	return self.sock.ServeHandler(nil)
}

var (
	globalMu     sync.Mutex
	globalServer *Socket
)

// SetupGlobalServer creates the process-wide Socket.IO server with the given namespaces
func SetupGlobalServer(namespaces ...string) *Socket {
	globalMu.Lock()
	defer globalMu.Unlock()

	server := new(Socket)
	server.Initialize()
	for _, name := range namespaces {
		server.AddNamespace(name)
	}
	globalServer = server
	return server
}

// GetGlobalServer returns the server created by SetupGlobalServer
func GetGlobalServer() *Socket {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalServer
}

// GetHandler returns the HTTP handler of the global server
func GetHandler() http.Handler {
	return GetGlobalServer().Handler()
}

// Namespace represents a Socket.IO namespace with custom event handling
type Namespace struct {
	namespace socket.Namespace
	events    map[string]func(client *socket.Socket, data ...any)
}

// Initialize sets up the namespace with default event handlers
func (self *Namespace) Initialize() {
	self.events = map[string]func(*socket.Socket, ...any){
		"disconnect": func(client *socket.Socket, reason ...any) {},
	}
}

// AddEvent registers a custom event handler for the namespace
func (self *Namespace) AddEvent(event string, f func(*socket.Socket, ...any)) {
	self.events[event] = f
}

// RegisterEvents activates all the event handlers for new client connections
func (self *Namespace) RegisterEvents() {
	self.namespace.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		for event, f := range self.events {
			client.On(event, func(data ...any) { f(client, data...) })
		}
	})
}

// AddMiddleware adds a middleware to the namespace
func (self *Namespace) AddMiddleware(f func(client *socket.Socket, next func(*socket.ExtendedError))) {
	self.namespace.Use(f)
}

// FirstArg unwraps the payload of an event, which clients sometimes nest in an array
func FirstArg(data []any) (any, bool) {
	if len(data) == 0 {
		return nil, false
	}
	if nested, ok := data[0].([]any); ok {
		if len(nested) == 0 {
			return nil, false
		}
		return nested[0], true
	}
	return data[0], true
}
