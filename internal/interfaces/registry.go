package interfaces

import (
	"context"

	"github.com/LusoHub/verification_service/internal/domain"
)

// VerificationRegistry is the system of record for submitted verifications.
// It assigns the verification ID on success; approval and rejection happen
// on its side, never here.
type VerificationRegistry interface {
	Submit(ctx context.Context, record *domain.VerificationRecord) (string, error)
}
