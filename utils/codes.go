package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PaymentReference generates a receipt reference for a recorded payment,
// e.g. "PAY-1A2B3C4D".
func PaymentReference() string {
	return generateCode("PAY")
}

func generateCode(prefix string) string {
	id := uuid.New()
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(id.String()[:8]))
}
