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

// TaskRepository is the persistence surface the task service depends on.
// The Mongo implementation lives in the repositories package; tests use an
// in-memory fake.
type TaskRepository interface {
	PendingAssignmentStore
	Insert(ctx context.Context, task *models.Task) (*models.Task, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, includeDeleted bool) ([]models.Task, error)
	ApplyUpdate(ctx context.Context, id primitive.ObjectID, set map[string]interface{}, unset []string) (*models.Task, error)
	SetDeletedAt(ctx context.Context, id primitive.ObjectID, deletedAt *time.Time) error
}

// UserLookup resolves user records; the task service uses it to read the
// owner's sharing preference when masking contact fields for assignees.
type UserLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Notifier delivers outbound notifications. Fire-and-forget; delivery
// failures must never fail the task operation.
type Notifier interface {
	TaskAssigned(task *models.Task, assigneeID primitive.ObjectID)
}

type CreateTaskInput struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	FromName         string `json:"fromName"`
	FromPhone        string `json:"fromPhone"`
	Category         string `json:"category"`
	Priority         string `json:"priority"`
	Status           string `json:"status"`
	Notes            string `json:"notes"`
	AssignedToUserID string `json:"assignedToUserId"`
	AssignedToEmail  string `json:"assignedToEmail"`
}

// TaskService implements the task operations behind the HTTP handlers. All
// authorization decisions go through the access policy, and every read of a
// task leaves through the masking policy.
type TaskService struct {
	repo     TaskRepository
	access   *AccessPolicy
	masking  *MaskingPolicy
	users    UserLookup
	audit    AuditEmitter
	notifier Notifier
}

func NewTaskService(repo TaskRepository, access *AccessPolicy, masking *MaskingPolicy, users UserLookup, audit AuditEmitter, notifier Notifier) *TaskService {
	return &TaskService{
		repo:     repo,
		access:   access,
		masking:  masking,
		users:    users,
		audit:    audit,
		notifier: notifier,
	}
}

// CreateTask creates a task owned by the caller. The assignment may name a
// registered user or an email address, never both.
func (s *TaskService) CreateTask(ctx context.Context, owner *models.User, input CreateTaskInput) (*models.Task, error) {
	if input.AssignedToUserID != "" && input.AssignedToEmail != "" {
		return nil, fmt.Errorf("assignedToUserId and assignedToEmail are mutually exclusive")
	}

	status := models.TaskStatus(input.Status)
	if status == "" {
		status = models.StatusNew
	}

	now := time.Now()
	task := &models.Task{
		ID:              primitive.NewObjectID(),
		OwnerID:         owner.ID,
		AssignedToEmail: input.AssignedToEmail,
		Title:           input.Title,
		Description:     input.Description,
		FromName:        input.FromName,
		FromPhone:       input.FromPhone,
		Category:        input.Category,
		Priority:        input.Priority,
		Status:          status,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if input.AssignedToUserID != "" {
		assigneeID, err := primitive.ObjectIDFromHex(input.AssignedToUserID)
		if err != nil {
			return nil, fmt.Errorf("invalid assignee ID format: %v", err)
		}
		task.AssignedToUserID = &assigneeID
	}

	created, err := s.repo.Insert(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	s.recordAudit(created.ID, models.ActionTaskCreated, owner.ID)

	if created.AssignedToUserID != nil {
		s.notifier.TaskAssigned(created, *created.AssignedToUserID)
	}

	return created, nil
}

// GetTask returns the task as the caller is allowed to see it. A task id
// with no record is ErrNotFound; an existing task the caller may not read is
// ErrForbidden. That ordering deliberately discloses existence of the task
// to any authenticated caller.
func (s *TaskService) GetTask(ctx context.Context, callerID primitive.ObjectID, taskID primitive.ObjectID) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanRead(task, callerID) {
		return nil, models.ErrForbidden
	}
	return s.maskForViewer(ctx, task, callerID), nil
}

// ListTasks returns the tasks the caller owns or is assigned to.
// Soft-deleted tasks are excluded unless includeDeleted is set.
func (s *TaskService) ListTasks(ctx context.Context, callerID primitive.ObjectID, includeDeleted bool) ([]models.Task, error) {
	tasks, err := s.repo.ListForUser(ctx, callerID, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}

	visible := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		visible = append(visible, *s.maskForViewer(ctx, &tasks[i], callerID))
	}
	return visible, nil
}

// UpdateTask applies the caller's update payload to a task. The payload is
// filtered to the fields the caller's role may change; disallowed keys are
// dropped without error.
func (s *TaskService) UpdateTask(ctx context.Context, callerID primitive.ObjectID, taskID primitive.ObjectID, payload map[string]interface{}) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanUpdate(task, callerID) {
		return nil, models.ErrForbidden
	}

	role := s.access.RoleFor(task, callerID)
	filtered := s.access.FilterUpdatePayload(role, payload)
	if len(filtered) == 0 {
		return s.maskForViewer(ctx, task, callerID), nil
	}

	set, unset, err := buildAssignmentSafeUpdate(filtered)
	if err != nil {
		return nil, err
	}
	set["updatedAt"] = time.Now()

	updated, err := s.repo.ApplyUpdate(ctx, taskID, set, unset)
	if err != nil {
		return nil, err
	}

	s.recordAudit(updated.ID, s.access.AuditActionFor(filtered), callerID)

	if changedAssignee(task, updated) {
		s.notifier.TaskAssigned(updated, *updated.AssignedToUserID)
	}

	return s.maskForViewer(ctx, updated, callerID), nil
}

// DeleteTask soft-deletes a task. Owner only.
func (s *TaskService) DeleteTask(ctx context.Context, callerID primitive.ObjectID, taskID primitive.ObjectID) error {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if !s.access.CanDelete(task, callerID) {
		return models.ErrForbidden
	}

	now := time.Now()
	if err := s.repo.SetDeletedAt(ctx, taskID, &now); err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}

	s.recordAudit(taskID, models.ActionTaskDeleted, callerID)
	return nil
}

// RestoreTask clears the soft-delete marker. Owner only.
func (s *TaskService) RestoreTask(ctx context.Context, callerID primitive.ObjectID, taskID primitive.ObjectID) error {
	task, err := s.repo.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if !s.access.CanDelete(task, callerID) {
		return models.ErrForbidden
	}

	if err := s.repo.SetDeletedAt(ctx, taskID, nil); err != nil {
		return fmt.Errorf("failed to restore task: %v", err)
	}

	s.recordAudit(taskID, models.ActionTaskRestored, callerID)
	return nil
}

// buildAssignmentSafeUpdate converts a filtered payload into set/unset field
// maps, keeping the assignment fields mutually exclusive: binding a user
// clears the email and vice versa.
func buildAssignmentSafeUpdate(filtered map[string]interface{}) (map[string]interface{}, []string, error) {
	set := make(map[string]interface{})
	var unset []string

	assignedUser, hasUser := filtered["assignedToUserId"]
	assignedEmail, hasEmail := filtered["assignedToEmail"]
	if hasUser && hasEmail && assignedUser != nil && assignedEmail != nil {
		return nil, nil, fmt.Errorf("assignedToUserId and assignedToEmail are mutually exclusive")
	}

	for field, value := range filtered {
		switch field {
		case "assignedToUserId":
			if value == nil {
				unset = append(unset, "assignedToUserId")
				continue
			}
			hex, ok := value.(string)
			if !ok {
				return nil, nil, fmt.Errorf("invalid assignee ID format")
			}
			assigneeID, err := primitive.ObjectIDFromHex(hex)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid assignee ID format: %v", err)
			}
			set["assignedToUserId"] = assigneeID
			unset = append(unset, "assignedToEmail")
		case "assignedToEmail":
			if value == nil || value == "" {
				unset = append(unset, "assignedToEmail")
				continue
			}
			set["assignedToEmail"] = value
			unset = append(unset, "assignedToUserId")
		default:
			set[field] = value
		}
	}

	return set, unset, nil
}

func changedAssignee(before, after *models.Task) bool {
	if after.AssignedToUserID == nil {
		return false
	}
	return before.AssignedToUserID == nil || *before.AssignedToUserID != *after.AssignedToUserID
}

// maskForViewer returns a copy of the task with contact fields passed
// through the masking policy. The stored task is never modified.
func (s *TaskService) maskForViewer(ctx context.Context, task *models.Task, viewerID primitive.ObjectID) *models.Task {
	view := *task
	viewerIsOwner := task.OwnerID == viewerID

	share := false
	if !viewerIsOwner {
		owner, err := s.users.FindByID(ctx, task.OwnerID)
		if err != nil {
			logging.Logger.Warnf("Event ID: OWNER_LOOKUP_FAILED, Description: Could not load owner %s for masking, defaulting to masked: %v", task.OwnerID.Hex(), err)
		} else {
			share = owner.Preferences.ShareCallerDetails
		}
	}

	view.FromPhone = s.masking.MaskPhone(task.FromPhone, viewerIsOwner, share)
	return &view
}

func (s *TaskService) recordAudit(taskID primitive.ObjectID, action string, actorID primitive.ObjectID) {
	s.audit.Record(models.AuditEvent{
		ID:         uuid.New().String(),
		EntityType: "task",
		EntityID:   taskID.Hex(),
		Action:     action,
		ActorID:    actorID.Hex(),
		CreatedAt:  time.Now(),
	})
}
