// Package repository defines the record operations the bot performs and the
// input DTOs validated before every write.
package repository

import (
	"context"

	"github.com/m3rciful/delofix/bot/model"
)

// DefaultSearchLimit caps the number of task ids one search returns.
const DefaultSearchLimit = 50

// Repository is the bot's persistence boundary. Implementations must bound
// every call with a short timeout and never hold a transaction across calls.
type Repository interface {
	UpsertUser(ctx context.Context, userID int64, username *string) error
	SetRole(ctx context.Context, userID int64, role model.Role) error
	GetUser(ctx context.Context, userID int64) (model.User, error)

	InsertClientTask(ctx context.Context, dto NewTask) (model.ID, error)
	ListTasksByOwner(ctx context.Context, ownerID int64, limit int) ([]model.ClientTask, error)
	GetTask(ctx context.Context, id model.ID) (model.ClientTask, error)
	// SearchOpenTasks returns ids of open tasks matching query, newest first.
	SearchOpenTasks(ctx context.Context, query string, limit int) ([]model.ID, error)

	UpsertMasterProfile(ctx context.Context, dto MasterProfile) error
	InsertOffer(ctx context.Context, dto NewOffer) (model.ID, error)

	// SelectEligibleAd returns the newest active ad with views left.
	SelectEligibleAd(ctx context.Context) (model.Advertisement, bool, error)
	IncrementAdViews(ctx context.Context, id model.ID) error
	// ActivateAd deactivates every ad and inserts dto as the only active one, atomically.
	ActivateAd(ctx context.Context, dto NewAd) (model.ID, error)
	ListAds(ctx context.Context) ([]model.Advertisement, error)

	Ping(ctx context.Context) error
}
