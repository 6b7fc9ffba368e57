package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kbenhida/leadbot/internal/models"
)

//go:embed schema.sql
var schema embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	schemaSQL, err := schema.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}

	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetConversation(ctx context.Context, sessionID string) (*models.Conversation, error) {
	query := `
		SELECT id, session_id, messages, lead_score, status, complexity, emails, phones, user_agent, created_at, updated_at
		FROM conversations
		WHERE session_id = $1`

	conv := &models.Conversation{}
	var rawMessages []byte
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&conv.ID,
		&conv.SessionID,
		&rawMessages,
		&conv.LeadScore,
		&conv.Status,
		&conv.Complexity,
		pq.Array(&conv.Emails),
		pq.Array(&conv.Phones),
		&conv.UserAgent,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying conversation: %w", err)
	}

	if err := json.Unmarshal(rawMessages, &conv.Messages); err != nil {
		return nil, fmt.Errorf("error decoding conversation messages: %w", err)
	}

	return conv, nil
}

// SaveTurn applies the conversation upsert, the analytics bump and the
// optional lead insert in one transaction, so a turn is either fully
// recorded or not at all.
func (s *PostgresStorage) SaveTurn(ctx context.Context, conv *models.Conversation, lead *models.Lead) error {
	rawMessages, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("error encoding conversation messages: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	convQuery := `
		INSERT INTO conversations (id, session_id, messages, lead_score, status, complexity, emails, phones, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id) DO UPDATE SET
			messages = EXCLUDED.messages,
			lead_score = EXCLUDED.lead_score,
			status = EXCLUDED.status,
			complexity = EXCLUDED.complexity,
			emails = EXCLUDED.emails,
			phones = EXCLUDED.phones,
			updated_at = EXCLUDED.updated_at`

	if _, err := tx.ExecContext(ctx, convQuery,
		conv.ID,
		conv.SessionID,
		rawMessages,
		conv.LeadScore,
		conv.Status,
		conv.Complexity,
		pq.Array(conv.Emails),
		pq.Array(conv.Phones),
		conv.UserAgent,
		conv.CreatedAt,
		conv.UpdatedAt,
	); err != nil {
		return fmt.Errorf("error upserting conversation: %w", err)
	}

	analyticsQuery := `
		INSERT INTO conversation_analytics (conversation_id, turns, max_score, last_status, updated_at)
		VALUES ($1, 1, $2, $3, now())
		ON CONFLICT (conversation_id) DO UPDATE SET
			turns = conversation_analytics.turns + 1,
			max_score = GREATEST(conversation_analytics.max_score, EXCLUDED.max_score),
			last_status = EXCLUDED.last_status,
			updated_at = now()`

	if _, err := tx.ExecContext(ctx, analyticsQuery, conv.ID, conv.LeadScore, conv.Status); err != nil {
		return fmt.Errorf("error upserting analytics: %w", err)
	}

	if lead != nil {
		leadQuery := `
			INSERT INTO leads (conversation_id, email, phone, qualification_score, urgency_level, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (conversation_id, email) DO NOTHING
			RETURNING id`

		err := tx.QueryRowContext(ctx, leadQuery,
			lead.ConversationID,
			lead.Email,
			lead.Phone,
			lead.QualificationScore,
			lead.UrgencyLevel,
			lead.Status,
			lead.CreatedAt,
		).Scan(&lead.ID)
		// ErrNoRows means a concurrent turn already created this lead.
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("error inserting lead: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing turn: %w", err)
	}
	return nil
}

func (s *PostgresStorage) HasLead(ctx context.Context, conversationID, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM leads WHERE conversation_id = $1 AND email = $2)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, conversationID, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking lead existence: %w", err)
	}
	return exists, nil
}

func (s *PostgresStorage) ListLeads(ctx context.Context) ([]*models.Lead, error) {
	query := `
		SELECT id, conversation_id, email, phone, qualification_score, urgency_level, status, created_at
		FROM leads
		ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying leads: %w", err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead := &models.Lead{}
		if err := rows.Scan(
			&lead.ID,
			&lead.ConversationID,
			&lead.Email,
			&lead.Phone,
			&lead.QualificationScore,
			&lead.UrgencyLevel,
			&lead.Status,
			&lead.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}

	return leads, nil
}

func (s *PostgresStorage) GetAnalytics(ctx context.Context, conversationID string) (*models.Analytics, error) {
	query := `
		SELECT conversation_id, turns, max_score, last_status, updated_at
		FROM conversation_analytics
		WHERE conversation_id = $1`

	a := &models.Analytics{}
	err := s.db.QueryRowContext(ctx, query, conversationID).Scan(
		&a.ConversationID,
		&a.Turns,
		&a.MaxScore,
		&a.LastStatus,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying analytics: %w", err)
	}
	return a, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
