package port

import (
	"context"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
)

// CodeSender hands a plaintext one-time code to the messaging subsystem.
// Delivery is fire-and-forget from the challenge's perspective: a false or an
// error never invalidates the stored challenge.
type CodeSender interface {
	Send(ctx context.Context, identifier string, channel domain.Channel, code string) (bool, error)
}
