// Package ws provides a WebSocket client for the drudge gateway.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/coder/websocket"

	wsprotocol "github.com/dohr-michael/drudge/internal/gateway/ws"
	"github.com/dohr-michael/drudge/internal/sim"
)

// Client is a WebSocket client for the drudge gateway.
type Client struct {
	conn   *websocket.Conn
	reqSeq uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects to the gateway WebSocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		conn:   conn,
		ctx:    clientCtx,
		cancel: cancel,
	}, nil
}

// request sends a frame and waits for the matching response, discarding
// event frames that arrive in between.
func (c *Client) request(method wsprotocol.Method, params any) (wsprotocol.Frame, error) {
	seq := atomic.AddUint64(&c.reqSeq, 1)
	id := fmt.Sprintf("req-%d", seq)

	frame := wsprotocol.Frame{
		Type:   wsprotocol.FrameTypeRequest,
		ID:     id,
		Method: string(method),
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return wsprotocol.Frame{}, err
		}
		frame.Params = data
	}

	data, err := wsprotocol.MarshalFrame(frame)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	if err := c.conn.Write(c.ctx, websocket.MessageText, data); err != nil {
		return wsprotocol.Frame{}, err
	}

	for {
		res, err := c.ReadFrame()
		if err != nil {
			return wsprotocol.Frame{}, err
		}
		if res.Type != wsprotocol.FrameTypeResponse || res.ID != id {
			continue
		}
		if res.OK == nil || !*res.OK {
			return res, fmt.Errorf("gateway error: %s", res.Error)
		}
		return res, nil
	}
}

// SubmitActivity queues an activity on the daemon's simulation.
func (c *Client) SubmitActivity(req sim.Request) error {
	_, err := c.request(wsprotocol.MethodSubmitActivity, req)
	return err
}

// CancelActivity stops whatever the character is doing. It reports
// whether anything was actually canceled.
func (c *Client) CancelActivity(reason string) (bool, error) {
	res, err := c.request(wsprotocol.MethodCancelActivity, map[string]string{"reason": reason})
	if err != nil {
		return false, err
	}
	var payload struct {
		Canceled bool `json:"canceled"`
	}
	if err := json.Unmarshal(res.Payload, &payload); err != nil {
		return false, err
	}
	return payload.Canceled, nil
}

// State fetches the daemon's current simulation state.
func (c *Client) State() (sim.State, error) {
	res, err := c.request(wsprotocol.MethodGetState, nil)
	if err != nil {
		return sim.State{}, err
	}
	var st sim.State
	if err := json.Unmarshal(res.Payload, &st); err != nil {
		return sim.State{}, fmt.Errorf("decode state: %w", err)
	}
	return st, nil
}

// Kinds lists the activity kinds the daemon knows how to run.
func (c *Client) Kinds() ([]string, error) {
	res, err := c.request(wsprotocol.MethodListKinds, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Kinds []string `json:"kinds"`
	}
	if err := json.Unmarshal(res.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode kinds: %w", err)
	}
	return payload.Kinds, nil
}

// ReadFrame reads the next frame from the connection.
func (c *Client) ReadFrame() (wsprotocol.Frame, error) {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	return wsprotocol.UnmarshalFrame(data)
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
