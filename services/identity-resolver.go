package services

import (
	"context"
	"fmt"
	"time"

	"tasklog-service/logging"
	"tasklog-service/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PendingAssignmentStore is the slice of the task store the resolver needs:
// the atomic claim of email-addressed assignments.
type PendingAssignmentStore interface {
	// ConditionalClaim binds every non-deleted task whose assignedToEmail
	// matches the given email and whose assignedToUserId is still unset to
	// the given user, clearing the email. Each claim must re-check the
	// "still unset" predicate atomically at write time, so concurrent
	// claims for the same email never double-bind a task. It returns the
	// ids of the tasks claimed by this call.
	ConditionalClaim(ctx context.Context, email string, userID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// AuditEmitter records mutating events. Implementations are fire-and-forget:
// Record never returns an error and must not block the caller on sink
// failures.
type AuditEmitter interface {
	Record(event models.AuditEvent)
}

// IdentityResolver converts tasks assigned "by email" into concrete user
// bindings the moment the email's owner authenticates. The operation is
// idempotent - once a task is bound, the claim predicate no longer matches
// it - so it runs on every login, not just the first.
type IdentityResolver struct {
	store PendingAssignmentStore
	audit AuditEmitter
}

func NewIdentityResolver(store PendingAssignmentStore, audit AuditEmitter) *IdentityResolver {
	return &IdentityResolver{store: store, audit: audit}
}

// ResolvePendingAssignments claims all pending assignments for the verified
// email and returns how many tasks were activated. The caller must have
// proven ownership of the email before this is invoked.
//
// A store failure comes back wrapped in models.ErrStoreUnavailable. Login
// flows treat that as non-fatal: the binding stays pending in storage and is
// retried on the next login or explicit resync, so it is eventually applied
// and never silently lost.
func (r *IdentityResolver) ResolvePendingAssignments(ctx context.Context, verifiedEmail string, userID primitive.ObjectID) (int64, error) {
	claimed, err := r.store.ConditionalClaim(ctx, verifiedEmail, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	for _, taskID := range claimed {
		r.audit.Record(models.AuditEvent{
			ID:         uuid.New().String(),
			EntityType: "task",
			EntityID:   taskID.Hex(),
			Action:     models.ActionAssignmentActivated,
			ActorID:    userID.Hex(),
			CreatedAt:  time.Now(),
		})
	}

	if len(claimed) > 0 {
		logging.Logger.Infof("Event ID: ASSIGNMENTS_ACTIVATED, Description: Activated %d pending task assignments for user %s", len(claimed), userID.Hex())
	}

	return int64(len(claimed)), nil
}
