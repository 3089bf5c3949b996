package aggstore

import "fmt"

// NewStore creates a Store based on the configuration.
// - "badger": embedded persistent store under cfg.Path
// - "memory" or empty: process-local store, lost on restart
func NewStore(cfg *Config) (Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	switch cfg.Backend {
	case "badger":
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger store requires a path")
		}
		return NewBadgerStore(cfg.Path)

	case "memory", "":
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s (supported: badger, memory)", cfg.Backend)
	}
}
