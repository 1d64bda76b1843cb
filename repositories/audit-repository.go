package repositories

import (
	"os"

	"tasklog-service/logging"
	"tasklog-service/models"

	"github.com/gocql/gocql"
)

// AuditRepo persists audit events in Cassandra. It implements the
// services.AuditEmitter interface: Record is fire-and-forget, a failed write
// is logged and dropped, never surfaced to the operation that emitted it.
type AuditRepo struct {
	session *gocql.Session
}

func NewAuditRepo() (*AuditRepo, error) {
	db := os.Getenv("CASS_DB")
	if db == "" {
		db = "127.0.0.1"
	}

	cluster := gocql.NewCluster(db)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		logging.Logger.Errorf("Event ID: AUDIT_DB_CONNECT_FAILED, Description: Failed to connect to Cassandra: %v", err)
		return nil, err
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS audit
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: AUDIT_KEYSPACE_FAILED, Description: Failed to create audit keyspace: %v", err)
		return nil, err
	}
	session.Close()

	cluster.Keyspace = "audit"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		logging.Logger.Errorf("Event ID: AUDIT_KEYSPACE_CONNECT_FAILED, Description: Failed to connect to audit keyspace: %v", err)
		return nil, err
	}

	logging.Logger.Info("Event ID: AUDIT_DB_CONNECTED, Description: Connected to Cassandra audit keyspace.")
	return &AuditRepo{session: session}, nil
}

func (ar *AuditRepo) CloseSession() {
	ar.session.Close()
	logging.Logger.Info("Event ID: AUDIT_SESSION_CLOSED, Description: Cassandra session closed.")
}

func (ar *AuditRepo) CreateTable() {
	err := ar.session.Query(
		`CREATE TABLE IF NOT EXISTS audit_events (
			id UUID,
			entity_type TEXT,
			entity_id TEXT,
			action TEXT,
			actor_id TEXT,
			created_at TIMESTAMP,
			PRIMARY KEY ((entity_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: AUDIT_TABLE_FAILED, Description: Failed to create audit_events table: %v", err)
	} else {
		logging.Logger.Info("Event ID: AUDIT_TABLE_READY, Description: audit_events table created successfully!")
	}
}

// Record writes one audit event. Errors are logged and swallowed.
func (ar *AuditRepo) Record(event models.AuditEvent) {
	uuid, err := gocql.ParseUUID(event.ID)
	if err != nil {
		uuid = gocql.TimeUUID()
	}

	err = ar.session.Query(
		`INSERT INTO audit_events (id, entity_type, entity_id, action, actor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid, event.EntityType, event.EntityID, event.Action, event.ActorID, event.CreatedAt,
	).Exec()
	if err != nil {
		logging.Logger.Errorf("Event ID: AUDIT_WRITE_FAILED, Description: Failed to record audit event %s for %s/%s: %v", event.Action, event.EntityType, event.EntityID, err)
		return
	}
}

// ListByEntity returns the recorded events for one entity, newest first.
func (ar *AuditRepo) ListByEntity(entityID string) ([]models.AuditEvent, error) {
	query := `SELECT id, entity_type, entity_id, action, actor_id, created_at
			  FROM audit_events WHERE entity_id = ?`

	iter := ar.session.Query(query, entityID).Iter()
	var events []models.AuditEvent
	var event models.AuditEvent
	var id gocql.UUID

	for iter.Scan(&id, &event.EntityType, &event.EntityID, &event.Action, &event.ActorID, &event.CreatedAt) {
		event.ID = id.String()
		events = append(events, event)
	}

	if err := iter.Close(); err != nil {
		logging.Logger.Errorf("Event ID: AUDIT_READ_FAILED, Description: Failed to read audit events for %s: %v", entityID, err)
		return nil, err
	}

	return events, nil
}
