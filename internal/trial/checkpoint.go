package trial

import (
	"encoding/gob"
	"fmt"
	"os"
)

// SaveParams writes the model's flattened parameters to a file.
func SaveParams(m Model, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(CopyParams(m)); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return nil
}

// LoadParams reads parameters from a file and copies them into the
// model. The model must have the architecture the checkpoint was saved
// from.
func LoadParams(m Model, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer file.Close()

	var snapshot []float64
	if err := gob.NewDecoder(file).Decode(&snapshot); err != nil {
		return fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return RestoreParams(m, snapshot)
}
