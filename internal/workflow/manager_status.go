package workflow

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running       bool
	Active        int
	Queued        int
	MaxConcurrent int
	MaxQueued     int
	LastError     string
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := StatusSummary{
		Running:       m.running,
		MaxConcurrent: m.maxConcurrent,
		MaxQueued:     m.maxQueued,
	}
	for _, t := range m.tasks {
		if t.started {
			summary.Active++
		} else {
			summary.Queued++
		}
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	return summary
}

// IsActive reports whether a worker is still running for id.
func (m *Manager) IsActive(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[id]
	return ok
}
