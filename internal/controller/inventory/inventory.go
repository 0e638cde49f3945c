// Package inventory implements a controller backed by a YAML file that an
// external exporter can rewrite between ticks. The file is read once per
// tick through Snapshot; the Controller methods re-read it on every call.
package inventory

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/factory"
	"Go2NetSentry/internal/model"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func init() {
	factory.RegisterController("inventory", func(cfg *config.Config) (model.Controller, error) {
		if cfg.Controller.Inventory.Path == "" {
			return nil, fmt.Errorf("controller.inventory.path is required")
		}
		return New(cfg.Controller.Inventory.Path), nil
	})
}

// PortDef is one port counter in the inventory file.
type PortDef struct {
	Port          string `yaml:"port"`
	BytesReceived int64  `yaml:"bytes_received"`
}

// DeviceDef is one device with its port counters.
type DeviceDef struct {
	ID    string    `yaml:"id"`
	Ports []PortDef `yaml:"ports"`
}

// HostDef attaches a host to a device port.
type HostDef struct {
	MAC    string `yaml:"mac"`
	Device string `yaml:"device"`
	Port   string `yaml:"port"`
}

// Document is the top-level inventory layout.
type Document struct {
	Devices []DeviceDef `yaml:"devices"`
	Hosts   []HostDef   `yaml:"hosts"`
}

// Controller implements model.Controller over an inventory file.
type Controller struct {
	path string
}

// New creates a controller reading path.
func New(path string) *Controller {
	return &Controller{path: path}
}

func (c *Controller) load() (*Document, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inventory YAML: %w", err)
	}
	return &doc, nil
}

// Snapshot reads the file once and returns a controller answering from it.
func (c *Controller) Snapshot(ctx context.Context) (model.Controller, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := c.load()
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListActiveHosts re-reads the file and returns its hosts in file order.
func (c *Controller) ListActiveHosts(ctx context.Context) ([]model.HostLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := c.load()
	if err != nil {
		return nil, err
	}
	return doc.ListActiveHosts(ctx)
}

// PortByteCounters re-reads the file and returns the counters of device.
func (c *Controller) PortByteCounters(ctx context.Context, device string) ([]model.PortCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := c.load()
	if err != nil {
		return nil, err
	}
	return doc.PortByteCounters(ctx, device)
}

// ListActiveHosts returns the hosts of the document in file order.
func (doc *Document) ListActiveHosts(ctx context.Context) ([]model.HostLocation, error) {
	hosts := make([]model.HostLocation, 0, len(doc.Hosts))
	for _, h := range doc.Hosts {
		id, err := model.ParseHostID(h.MAC)
		if err != nil {
			return nil, fmt.Errorf("inventory host on %s/%s: %w", h.Device, h.Port, err)
		}
		hosts = append(hosts, model.HostLocation{Host: id, Device: h.Device, Port: h.Port})
	}
	return hosts, nil
}

// PortByteCounters returns the counters of device, or none if it is not listed.
func (doc *Document) PortByteCounters(ctx context.Context, device string) ([]model.PortCounter, error) {
	for _, d := range doc.Devices {
		if d.ID != device {
			continue
		}
		counters := make([]model.PortCounter, len(d.Ports))
		for i, p := range d.Ports {
			counters[i] = model.PortCounter{Port: p.Port, BytesReceived: p.BytesReceived}
		}
		return counters, nil
	}
	return nil, nil
}
