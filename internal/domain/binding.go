package domain

// BindingStatus tells whether a domain already routes traffic.
type BindingStatus string

const (
	BindingActive  BindingStatus = "active"
	BindingPlanned BindingStatus = "planned"
)

// DomainBinding maps a routable hostname to an application or container.
// Bindings are loaded once from static configuration and never mutated.
type DomainBinding struct {
	// Domain is the routable hostname.
	// Example: docs.cdto.life
	Domain string `json:"domain" yaml:"domain"`

	// ContainerName is matched as a case-insensitive substring of the
	// record's container name.
	ContainerName string `json:"container_name,omitempty" yaml:"container_name,omitempty"`

	// AppName is matched as a case-insensitive substring of the record's
	// display name when ContainerName did not match.
	AppName string `json:"app_name,omitempty" yaml:"app_name,omitempty"`

	Description string        `json:"description" yaml:"description"`
	Status      BindingStatus `json:"status" yaml:"status"`
}
