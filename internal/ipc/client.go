package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Galleria.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Galleria.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health retrieves daemon and database health.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.client.Call("Galleria.Health", HealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GalleryList returns every registered gallery.
func (c *Client) GalleryList() (*GalleryListResponse, error) {
	var resp GalleryListResponse
	if err := c.client.Call("Galleria.GalleryList", GalleryListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GalleryAdd registers a new gallery.
func (c *Client) GalleryAdd(reg GalleryRegistration) (*GalleryAddResponse, error) {
	var resp GalleryAddResponse
	if err := c.client.Call("Galleria.GalleryAdd", GalleryAddRequest{Gallery: reg}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GalleryDescribe returns details for a single gallery.
func (c *Client) GalleryDescribe(id string) (*GalleryDescribeResponse, error) {
	var resp GalleryDescribeResponse
	if err := c.client.Call("Galleria.GalleryDescribe", GalleryDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GalleryUpdate replaces a gallery's schedule and criteria.
func (c *Client) GalleryUpdate(id string, reg GalleryRegistration) (*GalleryUpdateResponse, error) {
	var resp GalleryUpdateResponse
	req := GalleryUpdateRequest{ID: id, Gallery: reg}
	if err := c.client.Call("Galleria.GalleryUpdate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GalleryRemove deletes a gallery.
func (c *Client) GalleryRemove(id string) (*GalleryRemoveResponse, error) {
	var resp GalleryRemoveResponse
	if err := c.client.Call("Galleria.GalleryRemove", GalleryRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
