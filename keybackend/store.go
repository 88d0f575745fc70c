package keybackend

// KeysConfig holds configuration for loading account public keys.
type KeysConfig struct {
	Inline []AccountKey `mapstructure:"inline"` // Inline account keys from config
	File   string       `mapstructure:"file"`   // Path to JSON file of account keys
}

// NewKeyStore creates a MapKeyStore from the given configuration.
// Inline keys and file keys are merged; a key present in both resolves to
// the same id, so duplicates collapse.
func NewKeyStore(cfg KeysConfig) (*MapKeyStore, error) {
	keys, err := parseAccountKeys(cfg.Inline)
	if err != nil {
		return nil, err
	}

	if cfg.File != "" {
		fileKeys, err := LoadKeysFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for id, pub := range fileKeys {
			keys[id] = pub
		}
	}

	return NewMapKeyStore(keys), nil
}
