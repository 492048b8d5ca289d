package domain

// Registry maps a platform identifier to its connector. Both the token
// lifecycle and the metrics read path dispatch through it, so per-platform
// branching lives in exactly one place.
type Registry struct {
	connectors map[Platform]Connector
}

func NewRegistry(connectors ...Connector) *Registry {
	registry := &Registry{connectors: map[Platform]Connector{}}
	for _, connector := range connectors {
		if connector == nil {
			continue
		}
		registry.connectors[connector.Platform()] = connector
	}
	return registry
}

func (r *Registry) Connector(platform Platform) (Connector, error) {
	if r == nil {
		return nil, ErrUnsupportedPlatform
	}
	connector, ok := r.connectors[platform]
	if !ok {
		return nil, ErrUnsupportedPlatform
	}
	return connector, nil
}
