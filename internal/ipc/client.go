package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client is the CLI-side handle to a running daemon's control socket.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the daemon socket. The short timeout keeps commands
// snappy when the daemon is not running and the caller falls back to direct
// store access.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// call wraps the rpc round trip so each method reads as a single line.
func call[Resp any](c *Client, method string, req any) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start asks the daemon to begin queue processing.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartResponse](c, "Stylus.Start", StartRequest{})
}

// Stop halts queue processing without shutting the daemon down.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopResponse](c, "Stylus.Stop", StopRequest{})
}

// Status reports daemon state, queue stats, stage health, and dependencies.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusResponse](c, "Stylus.Status", StatusRequest{})
}

// LogTail fetches daemon log lines from the given offset.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	return call[LogTailResponse](c, "Stylus.LogTail", req)
}

// DatabaseHealth runs the queue database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	return call[DatabaseHealthResponse](c, "Stylus.DatabaseHealth", DatabaseHealthRequest{})
}

// TestNotification asks the daemon to fire a test notification.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	return call[TestNotificationResponse](c, "Stylus.TestNotification", TestNotificationRequest{})
}

// QueueList returns queue items, optionally filtered by status names.
func (c *Client) QueueList(statuses []string) (*QueueListResponse, error) {
	return call[QueueListResponse](c, "Stylus.QueueList", QueueListRequest{Statuses: statuses})
}

// QueueDescribe looks up one queue item by ID.
func (c *Client) QueueDescribe(id int64) (*QueueDescribeResponse, error) {
	return call[QueueDescribeResponse](c, "Stylus.QueueDescribe", QueueDescribeRequest{ID: id})
}

// QueueClear removes every item from the queue.
func (c *Client) QueueClear() (*QueueClearResponse, error) {
	return call[QueueClearResponse](c, "Stylus.QueueClear", QueueClearRequest{})
}

// QueueClearCompleted removes completed items only.
func (c *Client) QueueClearCompleted() (*QueueClearCompletedResponse, error) {
	return call[QueueClearCompletedResponse](c, "Stylus.QueueClearCompleted", QueueClearCompletedRequest{})
}

// QueueClearFailed removes failed items only.
func (c *Client) QueueClearFailed() (*QueueClearFailedResponse, error) {
	return call[QueueClearFailedResponse](c, "Stylus.QueueClearFailed", QueueClearFailedRequest{})
}

// QueueReset returns items stuck mid-stage to their start statuses.
func (c *Client) QueueReset() (*QueueResetResponse, error) {
	return call[QueueResetResponse](c, "Stylus.QueueReset", QueueResetRequest{})
}

// QueueRetry resets failed or review items back to pending.
func (c *Client) QueueRetry(ids []int64) (*QueueRetryResponse, error) {
	return call[QueueRetryResponse](c, "Stylus.QueueRetry", QueueRetryRequest{IDs: ids})
}

// QueueStop parks in-flight items so the lanes stop processing them.
func (c *Client) QueueStop(ids []int64) (*QueueStopResponse, error) {
	return call[QueueStopResponse](c, "Stylus.QueueStop", QueueStopRequest{IDs: ids})
}

// QueueRemove deletes specific items by ID.
func (c *Client) QueueRemove(ids []int64) (*QueueRemoveResponse, error) {
	return call[QueueRemoveResponse](c, "Stylus.QueueRemove", QueueRemoveRequest{IDs: ids})
}

// QueueHealth returns grouped queue counts.
func (c *Client) QueueHealth() (*QueueHealthResponse, error) {
	return call[QueueHealthResponse](c, "Stylus.QueueHealth", QueueHealthRequest{})
}
