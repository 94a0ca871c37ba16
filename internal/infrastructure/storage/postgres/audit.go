package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"foodchain/internal/core/id"
	"foodchain/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// auditRow is a single audit_log row.
type auditRow struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            audit.Action    `db:"action"`
	FromStatus        string          `db:"from_status"`
	ToStatus          string          `db:"to_status"`
	UserID            id.ID           `db:"user_id"`
	Role              string          `db:"role"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditRecorder implements audit.Recorder on the audit_log table.
// Change sets above the threshold are stored zstd-compressed.
type AuditRecorder struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Recorder = (*AuditRecorder)(nil)

// NewAuditRecorder creates a recorder. Entries are written through the
// transaction in ctx so they commit or roll back with the transition.
func NewAuditRecorder(txManager *TxManager) (*AuditRecorder, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditRecorder{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 4 * 1024,
	}, nil
}

// Record implements audit.Recorder.
func (s *AuditRecorder) Record(ctx context.Context, entry audit.Entry) error {
	row, err := s.encode(entry)
	if err != nil {
		return err
	}

	sql, args, err := Builder().Insert("audit_log").SetMap(StructToMap(row)).ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History implements audit.Recorder. Newest entries come first.
func (s *AuditRecorder) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity_type, entity_id, action, from_status, to_status,
		       user_id, role, changes, changes_compressed, compression_algo, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]audit.Entry, 0)
	for rows.Next() {
		var r auditRow
		if err := rows.Scan(
			&r.ID, &r.EntityType, &r.EntityID, &r.Action, &r.FromStatus, &r.ToStatus,
			&r.UserID, &r.Role, &r.Changes, &r.ChangesCompressed, &r.CompressionAlgo, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e, err := s.decode(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *AuditRecorder) encode(e audit.Entry) (auditRow, error) {
	row := auditRow{
		ID:              e.ID,
		EntityType:      e.EntityType,
		EntityID:        e.EntityID,
		Action:          e.Action,
		FromStatus:      e.FromStatus,
		ToStatus:        e.ToStatus,
		UserID:          e.UserID,
		Role:            e.Role,
		CompressionAlgo: CompressionNone,
		CreatedAt:       e.CreatedAt,
	}
	if id.IsNil(row.ID) {
		row.ID = id.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if len(e.Changes) == 0 {
		return row, nil
	}

	payload, err := json.Marshal(e.Changes)
	if err != nil {
		return row, fmt.Errorf("marshal audit changes: %w", err)
	}
	if len(payload) > s.compressThreshold {
		row.ChangesCompressed = s.encoder.EncodeAll(payload, nil)
		row.CompressionAlgo = CompressionZstd
		return row, nil
	}
	row.Changes = payload
	return row, nil
}

func (s *AuditRecorder) decode(r auditRow) (audit.Entry, error) {
	e := audit.Entry{
		ID:         r.ID,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Action:     r.Action,
		FromStatus: r.FromStatus,
		ToStatus:   r.ToStatus,
		UserID:     r.UserID,
		Role:       r.Role,
		CreatedAt:  r.CreatedAt,
	}

	payload := []byte(r.Changes)
	if r.CompressionAlgo == CompressionZstd && len(r.ChangesCompressed) > 0 {
		decompressed, err := s.decoder.DecodeAll(r.ChangesCompressed, nil)
		if err != nil {
			return e, fmt.Errorf("decompress audit changes: %w", err)
		}
		payload = decompressed
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Changes); err != nil {
			return e, fmt.Errorf("unmarshal audit changes: %w", err)
		}
	}
	return e, nil
}
