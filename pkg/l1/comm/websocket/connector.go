package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/net/websocket"

	"github.com/robotalks/transbot.go/pkg/l1"
	"github.com/robotalks/transbot.go/pkg/l1/comm"
)

// Connector implements l1.Connector for a single websocket endpoint,
// e.g. ws://robot:8080/robo.
type Connector struct {
	URL string
}

// NewConnector creates a Connector.
func NewConnector(endpoint string) (*Connector, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported websocket scheme %q", u.Scheme)
	}
	return &Connector{URL: endpoint}, nil
}

// Discover implements Connector by reading the endpoint's info.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "wss" {
		u.Scheme = "https"
	} else {
		u.Scheme = "http"
	}
	u.Path += MetaSuffix
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", u, resp.Status)
	}
	var info infoJSON
	if err = json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return []l1.ControllerInfo{{
		Ref:  l1.ControllerRef{Type: info.Type, ID: info.ID},
		Meta: info.Meta,
	}}, nil
}

// Connect implements Connector. The ref is not checked as the endpoint
// serves one controller.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	return DialContext(ctx, c.URL)
}

// ControllerConn is a ControllerConn over a websocket connection.
// It must be added to a Loop to receive replies.
type ControllerConn struct {
	comm.ControllerConn
	conn *websocket.Conn
}

// DialContext connects to a controller endpoint within the deadline of ctx.
func DialContext(ctx context.Context, endpoint string) (*ControllerConn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	conf, err := websocket.NewConfig(endpoint, "http://"+u.Host+"/")
	if err != nil {
		return nil, err
	}
	conf.Dialer = &net.Dialer{}
	if deadline, ok := ctx.Deadline(); ok {
		conf.Dialer.Deadline = deadline
	}
	ws, err := websocket.DialConfig(conf)
	if err != nil {
		return nil, err
	}
	c := &ControllerConn{conn: ws}
	c.Init(New(ws))
	return c, nil
}

// Close closes the connection.
func (c *ControllerConn) Close() error {
	return c.conn.Close()
}
