package module

import uploadsdom "popreel/internal/services/uploads/domain"

// Ports is what uploads offers other modules
type Ports struct {
	Uploads uploadsdom.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
