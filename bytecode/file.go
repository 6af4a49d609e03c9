package bytecode

import (
	"fmt"
	"os"
)

// WriteFile serializes the container to path.
func (c *Container) WriteFile(path string) error {
	if err := os.WriteFile(path, c.Serialize(), 0o644); err != nil {
		return fmt.Errorf("write executable: %w", err)
	}
	return nil
}

// ReadFile loads and validates an executable from path.
func ReadFile(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read executable: %w", err)
	}
	c, err := Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return c, nil
}
