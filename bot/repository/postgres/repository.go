// Package postgres implements the bot repository on PostgreSQL with sqlx and
// squirrel. Every call runs under its own timeout; the only transaction is ad
// activation and it never outlives the call.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m3rciful/delofix/bot/model"
	"github.com/m3rciful/delofix/bot/repository"
	"github.com/m3rciful/delofix/core/database"
	"github.com/m3rciful/delofix/core/logger"
)

const defaultTimeout = 3 * time.Second

// adActivationLock is the advisory lock key serializing ad activation.
const adActivationLock int64 = 0x64656c6f666978

var (
	userColumns = []string{
		"user_id",
		"telegram_username",
		"registration_date",
		"status",
		"complaint_count",
		`COALESCE("current_role", '') AS "current_role"`,
	}
	taskColumns = []string{
		"task_id", "user_id", "task_description", "task_photo_id", "location", "status", "creation_date",
	}
	adColumns = []string{
		"ad_id", "ad_text", "photo_id", "button_text", "button_url",
		"target_views", "current_views", "is_active", "creation_date",
	}
)

// Repository is the PostgreSQL repository.Repository.
type Repository struct {
	db      *database.DB
	timeout time.Duration
	log     *slog.Logger
}

var _ repository.Repository = (*Repository)(nil)

// New wraps db; timeout bounds every call (0 selects the default).
func New(db *database.DB, timeout time.Duration) *Repository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Repository{db: db, timeout: timeout, log: logger.DB.With("repo", "postgres")}
}

func (r *Repository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Repository) observe(ctx context.Context, query string, start time.Time, err error) {
	level, status := slog.LevelDebug, "ok"
	attrs := []slog.Attr{slog.String("query", query)}
	if err != nil {
		level, status = slog.LevelWarn, "fail"
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	attrs = append(attrs, slog.String("status", status), slog.Duration("duration", time.Since(start)))
	logger.LogEvent(ctx, r.log, level, "db.query", attrs...)
}

func (r *Repository) UpsertUser(ctx context.Context, userID int64, username *string) (err error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "upsert_user", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Insert("users").
		Columns("user_id", "telegram_username").
		Values(userID, username).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET telegram_username = EXCLUDED.telegram_username").
		ToSql()
	if err != nil {
		return err
	}
	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *Repository) SetRole(ctx context.Context, userID int64, role model.Role) (err error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "set_role", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Update("users").
		Set(`"current_role"`, string(role)).
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NewError("user", model.ErrNotFound)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, userID int64) (user model.User, err error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "get_user", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}
	if err = r.db.QueryRowxContext(ctx, query, args...).StructScan(&user); err != nil {
		if database.IsNoRows(err) {
			return model.User{}, model.NewError("user", model.ErrNotFound)
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *Repository) InsertClientTask(ctx context.Context, dto repository.NewTask) (id model.ID, err error) {
	if err := repository.Validate(dto); err != nil {
		return 0, model.NewError("task", err)
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "insert_task", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Insert("client_tasks").
		Columns("user_id", "task_description", "task_photo_id", "location").
		Values(dto.OwnerID, dto.Description, dto.PhotoID, dto.Location).
		Suffix("RETURNING task_id").
		ToSql()
	if err != nil {
		return 0, err
	}
	if err = r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return 0, model.NewError("user", model.ErrNotFound)
		}
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

func (r *Repository) ListTasksByOwner(ctx context.Context, ownerID int64, limit int) (tasks []model.ClientTask, err error) {
	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "list_tasks", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Select(taskColumns...).
		From("client_tasks").
		Where(squirrel.Eq{"user_id": ownerID}).
		OrderBy("creation_date DESC", "task_id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	tasks = make([]model.ClientTask, 0, limit)
	if err = r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *Repository) GetTask(ctx context.Context, id model.ID) (task model.ClientTask, err error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "get_task", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Select(taskColumns...).
		From("client_tasks").
		Where(squirrel.Eq{"task_id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.ClientTask{}, err
	}
	if err = r.db.QueryRowxContext(ctx, query, args...).StructScan(&task); err != nil {
		if database.IsNoRows(err) {
			return model.ClientTask{}, model.NewError("task", model.ErrNotFound)
		}
		return model.ClientTask{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (r *Repository) SearchOpenTasks(ctx context.Context, q string, limit int) (ids []model.ID, err error) {
	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "search_tasks", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Select("task_id").
		From("client_tasks").
		Where(squirrel.Eq{"status": string(model.TaskOpen)}).
		Where("to_tsvector('russian', task_description || ' ' || location) @@ plainto_tsquery('russian', ?)", q).
		OrderBy("creation_date DESC", "task_id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	ids = make([]model.ID, 0, limit)
	if err = r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	return ids, nil
}

func (r *Repository) UpsertMasterProfile(ctx context.Context, dto repository.MasterProfile) (err error) {
	if err := repository.Validate(dto); err != nil {
		return model.NewError("profile", err)
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "upsert_profile", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Insert("master_profiles").
		Columns("user_id", "name", "skills_description", "service_area").
		Values(dto.UserID, dto.Name, dto.Skills, dto.ServiceArea).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			skills_description = EXCLUDED.skills_description,
			service_area = EXCLUDED.service_area,
			is_active = TRUE`).
		ToSql()
	if err != nil {
		return err
	}
	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		if database.IsForeignKeyViolation(err) {
			return model.NewError("user", model.ErrNotFound)
		}
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *Repository) InsertOffer(ctx context.Context, dto repository.NewOffer) (id model.ID, err error) {
	if err := repository.Validate(dto); err != nil {
		return 0, model.NewError("offer", err)
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "insert_offer", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Insert("master_offers").
		Columns("task_id", "master_user_id", "offer_price", "offer_message").
		Values(dto.TaskID, dto.MasterUserID, dto.Price, dto.Message).
		Suffix("RETURNING offer_id").
		ToSql()
	if err != nil {
		return 0, err
	}
	if err = r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return 0, model.NewError("offer", model.ErrExists)
		case database.IsForeignKeyViolation(err):
			return 0, model.NewError("task", model.ErrNotFound)
		}
		return 0, fmt.Errorf("insert offer: %w", err)
	}
	return id, nil
}

func (r *Repository) SelectEligibleAd(ctx context.Context) (ad model.Advertisement, ok bool, err error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "select_ad", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Select(adColumns...).
		From("ads").
		Where(squirrel.Eq{"is_active": true}).
		Where("current_views < target_views").
		OrderBy("creation_date DESC", "ad_id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return model.Advertisement{}, false, err
	}
	if err = r.db.QueryRowxContext(ctx, query, args...).StructScan(&ad); err != nil {
		if database.IsNoRows(err) {
			return model.Advertisement{}, false, nil
		}
		return model.Advertisement{}, false, fmt.Errorf("select ad: %w", err)
	}
	return ad, true, nil
}

func (r *Repository) IncrementAdViews(ctx context.Context, id model.ID) (err error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "increment_ad_views", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Update("ads").
		Set("current_views", squirrel.Expr("current_views + 1")).
		Where(squirrel.Eq{"ad_id": id}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("increment ad views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NewError("ad", model.ErrNotFound)
	}
	return nil
}

func (r *Repository) ActivateAd(ctx context.Context, dto repository.NewAd) (id model.ID, err error) {
	if err := repository.Validate(dto); err != nil {
		return 0, model.NewError("ad", err)
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "activate_ad", start, err) }(time.Now())

	deactivate, dargs, err := r.db.Builder.
		Update("ads").
		Set("is_active", false).
		Where(squirrel.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return 0, err
	}
	insert, iargs, err := r.db.Builder.
		Insert("ads").
		Columns("ad_text", "photo_id", "button_text", "button_url", "target_views", "is_active").
		Values(dto.Text, dto.PhotoID, dto.ButtonText, dto.ButtonURL, dto.TargetViews, true).
		Suffix("RETURNING ad_id").
		ToSql()
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("activate ad: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", adActivationLock); err != nil {
		return 0, fmt.Errorf("activate ad: lock: %w", err)
	}
	if _, err = tx.ExecContext(ctx, deactivate, dargs...); err != nil {
		return 0, fmt.Errorf("activate ad: deactivate: %w", err)
	}
	if err = tx.QueryRowxContext(ctx, insert, iargs...).Scan(&id); err != nil {
		return 0, fmt.Errorf("activate ad: insert: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("activate ad: commit: %w", err)
	}
	return id, nil
}

func (r *Repository) ListAds(ctx context.Context) (ads []model.Advertisement, err error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	defer func(start time.Time) { r.observe(ctx, "list_ads", start, err) }(time.Now())

	query, args, err := r.db.Builder.
		Select(adColumns...).
		From("ads").
		OrderBy("creation_date DESC", "ad_id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}
	if err = r.db.SelectContext(ctx, &ads, query, args...); err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}
	return ads, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()
	return r.db.PingContext(ctx)
}
