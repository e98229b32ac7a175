package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/delofix/bot/model"
	"github.com/m3rciful/delofix/bot/repository"
	"github.com/m3rciful/delofix/core/database"
)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(database.Wrap(sqlx.NewDb(db, "postgres")), time.Second), mock
}

func strp(s string) *string { return &s }

func TestInsertClientTask(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO client_tasks \(user_id,task_description,task_photo_id,location\) VALUES \(\$1,\$2,\$3,\$4\) RETURNING task_id`).
		WithArgs(int64(42), "leaky tap", nil, "Midtown").
		WillReturnRows(sqlmock.NewRows([]string{"task_id"}).AddRow(7))

	id, err := repo.InsertClientTask(context.Background(), repository.NewTask{
		OwnerID: 42, Description: "leaky tap", Location: "Midtown",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ID(7), id)
}

func TestInsertClientTaskRejectsInvalidDTO(t *testing.T) {
	repo, _ := newMock(t)
	_, err := repo.InsertClientTask(context.Background(), repository.NewTask{OwnerID: 42, Location: "Midtown"})
	assert.ErrorIs(t, err, model.ErrInvalid)
}

func TestGetUserMapsNoRows(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM users WHERE user_id = \$1 LIMIT 1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := repo.GetUser(context.Background(), 5)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetUserScansRole(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT .*COALESCE\("current_role", ''\) AS "current_role" FROM users`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "telegram_username", "registration_date", "status", "complaint_count", "current_role"}).
			AddRow(5, "bob", now, "active", 0, "master"))

	u, err := repo.GetUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMaster, u.Role)
	require.NotNil(t, u.Username)
	assert.Equal(t, "bob", *u.Username)
}

func TestSetRoleUnknownUser(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(`UPDATE users SET "current_role" = \$1 WHERE user_id = \$2`).
		WithArgs("client", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetRole(context.Background(), 9, model.RoleClient)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSearchOpenTasks(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`SELECT task_id FROM client_tasks WHERE status = \$1 AND to_tsvector\('russian', .*\) @@ plainto_tsquery\('russian', \$2\) ORDER BY creation_date DESC, task_id DESC LIMIT 50`).
		WithArgs("open", "кран").
		WillReturnRows(sqlmock.NewRows([]string{"task_id"}).AddRow(7).AddRow(3).AddRow(9))

	ids, err := repo.SearchOpenTasks(context.Background(), "кран", 0)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{7, 3, 9}, ids)
}

func TestSelectEligibleAd(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`FROM ads WHERE is_active = \$1 AND current_views < target_views ORDER BY creation_date DESC, ad_id DESC LIMIT 1`).
			WithArgs(true).
			WillReturnRows(sqlmock.NewRows(adColumns))

		_, ok, err := repo.SelectEligibleAd(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("found", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`FROM ads WHERE is_active`).
			WithArgs(true).
			WillReturnRows(sqlmock.NewRows(adColumns).
				AddRow(3, "sale", nil, "Book now", "https://example.com", 100, 10, true, time.Now()))

		ad, ok, err := repo.SelectEligibleAd(context.Background())
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, ad.Eligible())
		assert.True(t, ad.HasButton())
		assert.Nil(t, ad.PhotoID)
	})
}

func TestIncrementAdViews(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(`UPDATE ads SET current_views = current_views \+ 1 WHERE ad_id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementAdViews(context.Background(), 3))
}

func TestActivateAdRunsInOneTransaction(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(adActivationLock).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE ads SET is_active = \$1 WHERE is_active = \$2`).
		WithArgs(false, true).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`INSERT INTO ads \(ad_text,photo_id,button_text,button_url,target_views,is_active\) VALUES .* RETURNING ad_id`).
		WithArgs("sale", nil, "Book now", "https://example.com", 100, true).
		WillReturnRows(sqlmock.NewRows([]string{"ad_id"}).AddRow(11))
	mock.ExpectCommit()

	id, err := repo.ActivateAd(context.Background(), repository.NewAd{
		Text: "sale", ButtonText: strp("Book now"), ButtonURL: strp("https://example.com"), TargetViews: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ID(11), id)
}

func TestActivateAdRollsBackOnFailure(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE ads SET is_active`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO ads`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.ActivateAd(context.Background(), repository.NewAd{Text: "sale", TargetViews: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestInsertOfferDuplicate(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO master_offers`).
		WillReturnError(&pq.Error{Code: pgerrcode.UniqueViolation})

	_, err := repo.InsertOffer(context.Background(), repository.NewOffer{TaskID: 7, MasterUserID: 2, Price: "1000"})
	assert.ErrorIs(t, err, model.ErrExists)
}
