package docload

import (
	"fmt"
	"os"
)

type txtLoader struct{}

func (txtLoader) Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return string(data), nil
}
