package server

import (
	"context"

	"github.com/kbukum/ecommerce-shared/component"
)

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component runs a Server under a component.Registry. Register it last so
// the server stops first and in-flight requests still reach the database.
type Component struct {
	server *Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

func (c *Component) Name() string { return "http-server" }

func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }

func (c *Component) Stop(ctx context.Context) error { return c.server.Stop(ctx) }

// Health is healthy while the server accepts connections.
func (c *Component) Health(context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if serving, reason := c.server.state(); !serving {
		h.Status, h.Message = component.StatusUnhealthy, reason
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{Name: "HTTP Server", Type: "server", Details: c.server.Addr()}
}
