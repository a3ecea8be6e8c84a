package cart

// Storage is durable key-value storage local to one client session.
// Load reports ok=false when nothing has been saved under key yet.
type Storage interface {
	Load(key string) (data []byte, ok bool, err error)
	Save(key string, data []byte) error
}

// MemoryStorage keeps records in a map. It survives Store re-creation within a
// process, which is enough for tests and throwaway sessions.
type MemoryStorage struct {
	records map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string][]byte)}
}

func (m *MemoryStorage) Load(key string) ([]byte, bool, error) {
	data, ok := m.records[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *MemoryStorage) Save(key string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)
	m.records[key] = stored
	return nil
}
