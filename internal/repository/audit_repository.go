package repository

import (
	"auth-session-server/config"
	"auth-session-server/internal/model"
	"auth-session-server/internal/util"
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const auditColumns = `id, event_type, success, user_uuid, ip_address, user_agent, event_data, error_message, created_at`

// AuditRepository : журнал только дописывается, удаление есть лишь для архивации
type AuditRepository struct {
	*config.Database
}

func NewAuditRepository(database *config.Database) *AuditRepository {
	return &AuditRepository{database}
}

func (r *AuditRepository) Insert(ctx context.Context, entry *model.AuditLogEntry) error {
	query := `INSERT INTO auth_audit_log (` + auditColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	eventData := "{}"
	if len(entry.EventData) > 0 {
		eventData = string(entry.EventData)
	}

	_, err := r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.EventType,
		entry.Success,
		entry.UserUUID,
		entry.IPAddress,
		entry.UserAgent,
		eventData,
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return util.LogError("[AuditRepo] ошибка записи в журнал аудита", err)
	}

	return nil
}

// CountFailuresByIP : неудачные входы по паролю с адреса ip начиная с since.
// Отказы refresh, 401 и записи самого лимитера не считаются
func (r *AuditRepository) CountFailuresByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM auth_audit_log
				WHERE ip_address = $1 AND event_type = $2 AND success = FALSE AND created_at >= $3`

	var count int
	if err := sqlx.GetContext(ctx, r.DB, &count, query, ip, string(model.AuditLoginFailed), since); err != nil {
		return 0, util.LogError("[AuditRepo] ошибка подсчёта неудачных попыток", err)
	}
	return count, nil
}

func (r *AuditRepository) ListRecentByUser(ctx context.Context, userUUID string, since time.Time, limit int) ([]model.AuditLogEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM auth_audit_log
				WHERE user_uuid = $1 AND created_at >= $2
				ORDER BY created_at DESC
				LIMIT $3`

	var entries []model.AuditLogEntry
	if err := sqlx.SelectContext(ctx, r.DB, &entries, query, userUUID, since, limit); err != nil {
		return nil, util.LogError("[AuditRepo] не удалось получить события пользователя", err)
	}
	return entries, nil
}

// ListBefore : самые старые записи до cutoff, пачкой не больше limit
func (r *AuditRepository) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.AuditLogEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM auth_audit_log
				WHERE created_at < $1
				ORDER BY created_at ASC
				LIMIT $2`

	var entries []model.AuditLogEntry
	if err := sqlx.SelectContext(ctx, r.DB, &entries, query, cutoff, limit); err != nil {
		return nil, util.LogError("[AuditRepo] не удалось выбрать записи для архива", err)
	}
	return entries, nil
}

func (r *AuditRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return execCount(ctx, r.DB, "[AuditRepo] ошибка удаления заархивированных записей",
		`DELETE FROM auth_audit_log WHERE id = ANY($1)`, pq.Array(ids))
}
