package main

import (
	"sync"

	"github.com/gammadia/furnace/api"
	stackpkg "github.com/gammadia/furnace/stack"
)

// serverStatus is the in-memory state reconstructed from the engine event
// stream, served by the status endpoint. Protected by serverStatusMutex:
// listenEvents writes, HTTP handlers read.
var serverStatus = api.StatusResponse{Version: "dev"}
var serverStatusMutex sync.RWMutex

// inProgress tracks which stacks currently have a running operation.
var inProgress = map[string]bool{}

// listenEvents runs as a dedicated goroutine (started in main.go). It is
// the only writer to serverStatus after startup.
func listenEvents(c <-chan stackpkg.Event) {
	for event := range c {
		serverStatusMutex.Lock()
		switch e := event.(type) {
		case stackpkg.EventStackScheduled:
			inProgress[e.Stack] = true
		case stackpkg.EventOperationCompleted:
			delete(inProgress, e.Stack)
		case stackpkg.EventStackRemoved:
			delete(inProgress, e.Stack)
		}
		serverStatus.OperationsInProgress = len(inProgress)
		serverStatusMutex.Unlock()
	}
}

func currentStatus() api.StatusResponse {
	serverStatusMutex.RLock()
	defer serverStatusMutex.RUnlock()
	status := serverStatus
	status.Stacks = len(engine.List())
	return status
}
