package module

import commentsdom "popreel/internal/services/comments/domain"

// Ports is what comments offers other modules
type Ports struct {
	Comments commentsdom.ServicePort
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
