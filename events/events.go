// Package events owns the fan-out of tick snapshots to connected clients. A
// single goroutine owns the connection set, so registration, unregistration
// and broadcasting never race.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/websocket"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

const shutdownPollInterval = 200 * time.Millisecond

const writeDeadline = 5 * time.Second

// connAndDoneChan carries a websocket connection along with a channel used to
// signal the caller once the hub goroutine has processed the request.
type connAndDoneChan struct {
	connection *websocket.Conn
	doneChan   chan bool
}

type EventHub struct {
	connections         map[*websocket.Conn]bool
	broadcast           chan []byte
	getQueueLength      chan chan int
	getConnectionAmount chan chan int
	flush               chan bool
	register            chan connAndDoneChan
	unregister          chan connAndDoneChan
	shutdown            chan bool
	queue               [][]byte
	isRunning           atomic.Bool
}

func NewEventHub() *EventHub {
	hub := EventHub{
		connections:         map[*websocket.Conn]bool{},
		broadcast:           make(chan []byte),
		getQueueLength:      make(chan chan int),
		getConnectionAmount: make(chan chan int),
		flush:               make(chan bool),
		register:            make(chan connAndDoneChan),
		unregister:          make(chan connAndDoneChan),
		shutdown:            make(chan bool),
		queue:               make([][]byte, 0),
		isRunning:           atomic.Bool{},
	}
	hub.isRunning.Store(false)
	go func() {
		hub.Run()
	}()
	return &hub
}

func (eh *EventHub) QueueLength() int {
	lengthChan := make(chan int)
	eh.getQueueLength <- lengthChan
	return <-lengthChan
}

func (eh *EventHub) ConnectionAmount() int {
	connChan := make(chan int)
	eh.getConnectionAmount <- connChan
	return <-connChan
}

// EmitState queues one snapshot for broadcast. The snapshot is not delivered
// until FlushEvents is called, which the tick engine does once per tick.
func (eh *EventHub) EmitState(snapshot any) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return eris.Wrap(err, "must use a json serializable type for the state snapshot")
	}
	eh.broadcast <- data
	return nil
}

// FlushEvents delivers every queued snapshot to every registered connection.
func (eh *EventHub) FlushEvents() {
	eh.flush <- true
}

func (eh *EventHub) RegisterConnection(ws *websocket.Conn) {
	doneChan := make(chan bool)
	eh.register <- connAndDoneChan{
		connection: ws,
		doneChan:   doneChan,
	}
	<-doneChan
}

func (eh *EventHub) UnregisterConnection(ws *websocket.Conn) {
	doneChan := make(chan bool)
	eh.unregister <- connAndDoneChan{
		connection: ws,
		doneChan:   doneChan,
	}
	<-doneChan
}

func (eh *EventHub) Shutdown() {
	eh.shutdown <- true
	// block until the loop fully exits.
	for eh.isRunning.Load() {
		time.Sleep(shutdownPollInterval)
	}
}

func (eh *EventHub) Run() {
	if eh.isRunning.Load() {
		return
	}
	eh.isRunning.Store(true)
	unregisterConnection := func(conn *websocket.Conn) {
		if _, ok := eh.connections[conn]; ok {
			delete(eh.connections, conn)
			err := eris.Wrap(conn.Close(), "")
			if err != nil {
				log.Logger.Error().Err(err).Msg(eris.ToString(err, true))
			}
		}
	}
Loop:
	for eh.isRunning.Load() {
		select {
		case connChan := <-eh.getConnectionAmount:
			connChan <- len(eh.connections)
		case lengthChan := <-eh.getQueueLength:
			lengthChan <- len(eh.queue)
		case reg := <-eh.register:
			eh.connections[reg.connection] = true
			reg.doneChan <- true
		case unreg := <-eh.unregister:
			unregisterConnection(unreg.connection)
			unreg.doneChan <- true
		case snapshot := <-eh.broadcast:
			eh.queue = append(eh.queue, snapshot)
		case <-eh.flush:
			var waitGroup sync.WaitGroup
			for conn := range eh.connections {
				waitGroup.Add(1)
				conn := conn
				go func() {
					defer waitGroup.Done()
					for _, snapshot := range eh.queue {
						err := eris.Wrap(conn.SetWriteDeadline(time.Now().Add(writeDeadline)), "")
						if err != nil {
							go func() {
								eh.UnregisterConnection(conn)
							}()
							log.Logger.Error().Err(err).Msg("connection unregistered: " + eris.ToString(err, true))
							break
						}
						err = eris.Wrap(conn.WriteMessage(websocket.TextMessage, snapshot), "")
						if err != nil {
							go func() {
								eh.UnregisterConnection(conn)
							}()
							log.Logger.Error().Err(err).Msg(eris.ToString(err, true))
							break
						}
					}
				}()
			}
			waitGroup.Wait()
			eh.queue = eh.queue[:0]
		case <-eh.shutdown:
			go func() {
				for range eh.shutdown { //nolint:revive // This pattern drains the channel until closed
				}
			}()
			for conn := range eh.connections {
				unregisterConnection(conn)
			}
			break Loop
		}
	}
	eh.isRunning.Store(false)
}
