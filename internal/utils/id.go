package utils

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateNanoIDWithPrefix returns a prefixed id like "tier_4f9c..." for entity rows
func GenerateNanoIDWithPrefix(prefix string, length int) string {
	id, err := gonanoid.Generate(idAlphabet, length)
	if err != nil {
		panic(fmt.Sprintf("failed to generate nanoid: %v", err))
	}
	return fmt.Sprintf("%s_%s", prefix, id)
}
