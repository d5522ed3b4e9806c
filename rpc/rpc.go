// Package rpc forwards synthesizer events over the network, so that a
// remote controller can play the synthesizer.
package rpc

import (
	"fmt"
	"net"
	"net/http"
	"net/rpc"

	"github.com/kirosynth/kiro"
)

const DefaultPort = "31337"

type EventServer struct {
	sender kiro.EventSender
}

// Send passes the event on; reply is 1 if it was accepted and 0 if it was
// dropped.
func (s *EventServer) Send(e kiro.Event, reply *int) error {
	if e.Kind == kiro.ParamChange && !e.Param.Valid() {
		return fmt.Errorf("invalid parameter reference %d", int(e.Param))
	}
	*reply = 0
	if s.sender.Send(e) {
		*reply = 1
	}
	return nil
}

// Serve registers an EventServer on a fresh rpc server and serves it over
// HTTP on the listener until the listener is closed.
func Serve(l net.Listener, sender kiro.EventSender) error {
	server := rpc.NewServer()
	if err := server.Register(&EventServer{sender: sender}); err != nil {
		return fmt.Errorf("rpc.Register failed: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle(rpc.DefaultRPCPath, server)
	return http.Serve(l, mux)
}

// Dial connects to a server. Events written to the returned channel are sent
// in order; closing the channel closes the connection. Errors of
// individual calls are passed to onError, which may be nil.
func Dial(address string, onError func(error)) (chan<- kiro.Event, error) {
	client, err := rpc.DialHTTP("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("rpc.DialHTTP failed: %w", err)
	}
	c := make(chan kiro.Event, 256)
	go func() {
		defer client.Close()
		for e := range c {
			var reply int
			if err := client.Call("EventServer.Send", e, &reply); err != nil && onError != nil {
				onError(fmt.Errorf("EventServer.Send error: %w", err))
			}
		}
	}()
	return c, nil
}
