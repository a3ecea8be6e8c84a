package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultReferencePrefix is used when no prefix is configured
const DefaultReferencePrefix = "exousia"

// NewPaymentReference mints a gateway reference of the form
// <prefix>_<unix millis>_<random>.
func NewPaymentReference(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = DefaultReferencePrefix
	}
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), random)
}
