package module

import followsdom "popreel/internal/services/follows/domain"

// Ports is what follows offers other modules
type Ports struct {
	Follows followsdom.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
