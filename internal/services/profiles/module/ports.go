package module

import profiledom "popreel/internal/services/profiles/domain"

// Ports is what profiles offers other modules
// Stats lets writers of counters drop the cached copy
type Ports struct {
	Profiles profiledom.ServicePort
	Stats    profiledom.StatsCache
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
