package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"

	"github.com/tabsplit/tabsplit/internal/models"
)

// shareCodeAttempts bounds the collision-retry loop. With a million possible
// codes and a few dozen active receipts, exhausting this means something is
// badly wrong, not bad luck.
const shareCodeAttempts = 25

var shareCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidShareCode reports whether s is a well-formed 6-digit code.
func ValidShareCode(s string) bool {
	return shareCodePattern.MatchString(s)
}

// generateShareCode draws random 6-digit codes until one is unused among
// active receipts, or the retries run out.
func (s *SettlementService) generateShareCode(ctx context.Context) (string, error) {
	for i := 0; i < shareCodeAttempts; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(1000000))
		if err != nil {
			return "", fmt.Errorf("failed to draw share code: %w", err)
		}
		code := fmt.Sprintf("%06d", n.Int64())

		inUse, err := s.store.ShareCodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", models.ErrCodeGenerationExhausted
}
