package receiver

import (
	"context"

	"github.com/pebbe/zmq4"
)

// startZMQ binds a PULL socket and feeds received messages through the
// same dispatch path as the HTTP transports. Used by device profiles
// that stream over ZMQ PUSH.
func (r *Receiver) startZMQ(ctx context.Context, endpoint string) error {
	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		return err
	}
	if err := socket.Bind(endpoint); err != nil {
		_ = socket.Close()
		return err
	}

	go func() {
		defer socket.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			msg, err := socket.RecvBytes(0)
			if err != nil {
				r.logEveryN("zmq recv error: %v", err)
				continue
			}
			_ = r.dispatch(msg)
		}
	}()

	return nil
}
