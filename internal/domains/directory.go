// Package domains holds the static table of routable domains and answers
// which of them belong to a discovered application.
package domains

import (
	"strings"

	"github.com/CDTO-DENKART/app-visualizer/internal/domain"
)

// Directory is an immutable, ordered domain table: active bindings first,
// then planned ones, each in configured order.
type Directory struct {
	bindings []domain.DomainBinding
}

// New builds a Directory from a parsed config.
func New(cfg Config) *Directory {
	d := &Directory{
		bindings: make([]domain.DomainBinding, 0, len(cfg.Active)+len(cfg.Planned)),
	}
	for _, e := range cfg.Active {
		d.bindings = append(d.bindings, e.binding(domain.BindingActive))
	}
	for _, e := range cfg.Planned {
		d.bindings = append(d.bindings, e.binding(domain.BindingPlanned))
	}
	return d
}

// Lookup returns every binding matching the application, active ones
// first. Per entry, a container-name match wins over an app-name match.
// Matching is case-insensitive containment of the configured value in the
// given name. The result is never nil.
func (d *Directory) Lookup(appName, containerName string) []domain.DomainBinding {
	app := strings.ToLower(appName)
	container := strings.ToLower(containerName)

	out := []domain.DomainBinding{}
	for _, b := range d.bindings {
		if matches(container, b.ContainerName) || matches(app, b.AppName) {
			out = append(out, b)
		}
	}
	return out
}

// List returns the bindings with the given status, in configured order.
func (d *Directory) List(status domain.BindingStatus) []domain.DomainBinding {
	out := []domain.DomainBinding{}
	for _, b := range d.bindings {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

// All returns every binding, active first.
func (d *Directory) All() []domain.DomainBinding {
	return append([]domain.DomainBinding(nil), d.bindings...)
}

// Len returns the number of bindings.
func (d *Directory) Len() int {
	return len(d.bindings)
}

func matches(name, configured string) bool {
	if name == "" || configured == "" {
		return false
	}
	return strings.Contains(name, strings.ToLower(configured))
}
