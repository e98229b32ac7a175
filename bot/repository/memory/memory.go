// Package memory is a process-local repository.Repository for development
// runs and tests. It mirrors the PostgreSQL semantics, including the single
// active ad rule.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/delofix/bot/model"
	"github.com/m3rciful/delofix/bot/repository"
)

type offerKey struct {
	task   model.ID
	master int64
}

// Repository keeps every record in maps guarded by one mutex.
type Repository struct {
	mu  sync.Mutex
	now func() time.Time
	seq model.ID

	users    map[int64]model.User
	profiles map[int64]model.MasterProfile
	tasks    []model.ClientTask
	offers   map[offerKey]model.Offer
	ads      []model.Advertisement
}

var _ repository.Repository = (*Repository)(nil)

func New() *Repository {
	return &Repository{
		now:      time.Now,
		users:    make(map[int64]model.User),
		profiles: make(map[int64]model.MasterProfile),
		offers:   make(map[offerKey]model.Offer),
	}
}

// nextID returns a fresh id and a creation time strictly after the previous one,
// so newest-first ordering is deterministic.
func (r *Repository) nextID() (model.ID, time.Time) {
	r.seq++
	return r.seq, r.now().Add(time.Duration(r.seq) * time.Microsecond)
}

func (r *Repository) UpsertUser(_ context.Context, userID int64, username *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		u = model.User{ID: userID, RegisteredAt: r.now(), Status: model.UserActive}
	}
	u.Username = cloneString(username)
	r.users[userID] = u
	return nil
}

func (r *Repository) SetRole(_ context.Context, userID int64, role model.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return model.NewError("user", model.ErrNotFound)
	}
	u.Role = role
	r.users[userID] = u
	return nil
}

func (r *Repository) GetUser(_ context.Context, userID int64) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return model.User{}, model.NewError("user", model.ErrNotFound)
	}
	return u, nil
}

func (r *Repository) InsertClientTask(_ context.Context, dto repository.NewTask) (model.ID, error) {
	if err := repository.Validate(dto); err != nil {
		return 0, model.NewError("task", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[dto.OwnerID]; !ok {
		return 0, model.NewError("user", model.ErrNotFound)
	}
	id, at := r.nextID()
	r.tasks = append(r.tasks, model.ClientTask{
		ID:          id,
		OwnerID:     dto.OwnerID,
		Description: dto.Description,
		PhotoID:     cloneString(dto.PhotoID),
		Location:    dto.Location,
		Status:      model.TaskOpen,
		CreatedAt:   at,
	})
	return id, nil
}

func (r *Repository) ListTasksByOwner(_ context.Context, ownerID int64, limit int) ([]model.ClientTask, error) {
	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ClientTask
	for i := len(r.tasks) - 1; i >= 0 && len(out) < limit; i-- {
		if r.tasks[i].OwnerID == ownerID {
			out = append(out, r.tasks[i])
		}
	}
	return out, nil
}

func (r *Repository) GetTask(_ context.Context, id model.ID) (model.ClientTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.ClientTask{}, model.NewError("task", model.ErrNotFound)
}

// SearchOpenTasks matches when every query word occurs in the description or
// location, case-insensitively. It approximates plainto_tsquery without stemming.
func (r *Repository) SearchOpenTasks(_ context.Context, query string, limit int) ([]model.ID, error) {
	if limit <= 0 {
		limit = repository.DefaultSearchLimit
	}
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []model.ID
	for i := len(r.tasks) - 1; i >= 0 && len(ids) < limit; i-- {
		t := r.tasks[i]
		if t.Status != model.TaskOpen {
			continue
		}
		hay := strings.ToLower(t.Description + " " + t.Location)
		if !slices.ContainsFunc(words, func(w string) bool { return !strings.Contains(hay, w) }) {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

func (r *Repository) UpsertMasterProfile(_ context.Context, dto repository.MasterProfile) error {
	if err := repository.Validate(dto); err != nil {
		return model.NewError("profile", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[dto.UserID]; !ok {
		return model.NewError("user", model.ErrNotFound)
	}
	p, ok := r.profiles[dto.UserID]
	if !ok {
		p.ID, _ = r.nextID()
		p.UserID = dto.UserID
	}
	p.Name, p.Skills, p.ServiceArea, p.Active = dto.Name, dto.Skills, dto.ServiceArea, true
	r.profiles[dto.UserID] = p
	return nil
}

// Profile returns the stored master profile.
func (r *Repository) Profile(userID int64) (model.MasterProfile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	return p, ok
}

func (r *Repository) InsertOffer(_ context.Context, dto repository.NewOffer) (model.ID, error) {
	if err := repository.Validate(dto); err != nil {
		return 0, model.NewError("offer", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.ContainsFunc(r.tasks, func(t model.ClientTask) bool { return t.ID == dto.TaskID }) {
		return 0, model.NewError("task", model.ErrNotFound)
	}
	key := offerKey{task: dto.TaskID, master: dto.MasterUserID}
	if _, dup := r.offers[key]; dup {
		return 0, model.NewError("offer", model.ErrExists)
	}
	id, at := r.nextID()
	r.offers[key] = model.Offer{
		ID: id, TaskID: dto.TaskID, MasterUserID: dto.MasterUserID,
		Price: dto.Price, Message: dto.Message, CreatedAt: at,
	}
	return id, nil
}

func (r *Repository) SelectEligibleAd(context.Context) (model.Advertisement, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.ads) - 1; i >= 0; i-- {
		if r.ads[i].Eligible() {
			return cloneAd(r.ads[i]), true, nil
		}
	}
	return model.Advertisement{}, false, nil
}

func (r *Repository) IncrementAdViews(_ context.Context, id model.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.ads {
		if r.ads[i].ID == id {
			r.ads[i].CurrentViews++
			return nil
		}
	}
	return model.NewError("ad", model.ErrNotFound)
}

func (r *Repository) ActivateAd(_ context.Context, dto repository.NewAd) (model.ID, error) {
	if err := repository.Validate(dto); err != nil {
		return 0, model.NewError("ad", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.ads {
		r.ads[i].Active = false
	}
	id, at := r.nextID()
	r.ads = append(r.ads, model.Advertisement{
		ID:          id,
		Text:        dto.Text,
		PhotoID:     cloneString(dto.PhotoID),
		ButtonText:  cloneString(dto.ButtonText),
		ButtonURL:   cloneString(dto.ButtonURL),
		TargetViews: dto.TargetViews,
		Active:      true,
		CreatedAt:   at,
	})
	return id, nil
}

// ListAds returns every ad, newest first.
func (r *Repository) ListAds(context.Context) ([]model.Advertisement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Advertisement, 0, len(r.ads))
	for i := len(r.ads) - 1; i >= 0; i-- {
		out = append(out, cloneAd(r.ads[i]))
	}
	return out, nil
}

func (r *Repository) Ping(context.Context) error { return nil }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneAd(a model.Advertisement) model.Advertisement {
	a.PhotoID = cloneString(a.PhotoID)
	a.ButtonText = cloneString(a.ButtonText)
	a.ButtonURL = cloneString(a.ButtonURL)
	return a
}
