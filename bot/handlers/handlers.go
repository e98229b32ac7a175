// Package handlers wires the menu handlers, wizards and search into one
// routing table.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/delofix/bot/browse"
	"github.com/m3rciful/delofix/bot/model"
	"github.com/m3rciful/delofix/bot/repository"
	"github.com/m3rciful/delofix/bot/ui"
	"github.com/m3rciful/delofix/bot/wizards"
	"github.com/m3rciful/delofix/core/logger"
	"github.com/m3rciful/delofix/core/telegram/router"
	"github.com/m3rciful/delofix/core/wizard"
)

const defaultMyTasksLimit = 10

// Config carries the settings handlers need.
type Config struct {
	// AdminID is the only user allowed into the admin panel; 0 disables it.
	AdminID      int64
	MyTasksLimit int
}

// Handlers holds the bot's dependencies.
type Handlers struct {
	repo    repository.Repository
	browser *browse.Browser
	cfg     Config

	task    *wizard.Wizard
	profile *wizard.Wizard
	ad      *wizard.Wizard
}

func New(repo repository.Repository, browser *browse.Browser, cfg Config) *Handlers {
	if cfg.MyTasksLimit <= 0 {
		cfg.MyTasksLimit = defaultMyTasksLimit
	}
	return &Handlers{
		repo:    repo,
		browser: browser,
		cfg:     cfg,
		task:    wizards.Task(repo),
		profile: wizards.Profile(repo),
		ad:      wizards.Ad(repo),
	}
}

// Routes returns the complete routing table.
func (h *Handlers) Routes() []router.Route {
	admin := router.FromUser(h.cfg.AdminID)

	var routes []router.Route
	for _, w := range []*wizard.Wizard{h.task, h.profile, h.ad} {
		routes = append(routes, w.Routes()...)
	}
	routes = append(routes, h.browser.Routes()...)

	routes = append(routes,
		h.task.Entry("menu.create_task", router.ScopeIdle, router.TextEquals(ui.BtnCreateTask)),
		h.profile.Entry("menu.profile", router.ScopeIdle, router.TextEquals(ui.BtnProfile)),
		router.Route{Name: "menu.search", Scope: router.ScopeIdle, Match: router.TextEquals(ui.BtnSearch), Handler: h.browser.Begin},
	)

	routes = append(routes,
		router.Route{Name: "cmd.start", Scope: router.ScopeGlobal, Match: router.Command("start"), Handler: h.Start},
		router.Route{Name: "menu.role", Scope: router.ScopeGlobal, Match: router.TextIn(ui.BtnClient, ui.BtnMaster, ui.BtnSwitchRole), Handler: h.Role},
		router.Route{Name: "cmd.menu", Scope: router.ScopeGlobal, Match: router.Command("menu"), Handler: h.Menu},
		router.Route{Name: "cmd.help", Scope: router.ScopeGlobal, Match: router.Command("help"), Handler: h.Help},
		router.Route{Name: "cmd.admin", Scope: router.ScopeGlobal, Match: router.All(router.Command("admin"), admin), Handler: h.Admin},
		h.ad.Entry("admin.create_ad", router.ScopeGlobal, router.All(router.TextEquals(ui.BtnCreateAd), admin)),
		router.Route{Name: "admin.ad_status", Scope: router.ScopeGlobal, Match: router.All(router.TextEquals(ui.BtnAdStatus), admin), Handler: h.AdStatus},
		router.Route{Name: "menu.my_tasks", Scope: router.ScopeGlobal, Match: router.TextEquals(ui.BtnMyTasks), Handler: h.MyTasks},
		router.Route{Name: "offer.start", Scope: router.ScopeGlobal, Match: router.CallbackPrefix(ui.CbMakeOfferPrefix), Handler: h.MakeOffer},
	)
	return routes
}

// Start registers the user and asks for a role.
func (h *Handlers) Start(ctx context.Context, req *router.Request) error {
	req.Session.Reset()
	u := req.Update
	if err := h.repo.UpsertUser(ctx, u.UserID, username(u)); err != nil {
		return err
	}
	return req.Reply(ctx, ui.WithKeyboard(ui.Welcome(u.FirstName), ui.RoleKeyboard))
}

// Role stores the chosen role and shows its menu. "Switch role" shows the choice again.
func (h *Handlers) Role(ctx context.Context, req *router.Request) error {
	req.Session.Reset()
	u := req.Update

	var (
		role model.Role
		msg  string
		kb   [][]string
	)
	switch {
	case strings.Contains(u.Text, "Заказчик"):
		role, msg, kb = model.RoleClient, ui.MsgAsClient, ui.ClientKeyboard
	case strings.Contains(u.Text, "Мастер"):
		role, msg, kb = model.RoleMaster, ui.MsgAsMaster, ui.MasterKeyboard
	default:
		return req.Reply(ctx, ui.WithKeyboard(ui.MsgChooseRole, ui.RoleKeyboard))
	}

	if err := h.repo.UpsertUser(ctx, u.UserID, username(u)); err != nil {
		return err
	}
	if err := h.repo.SetRole(ctx, u.UserID, role); err != nil {
		return err
	}
	return req.Reply(ctx, ui.WithKeyboard(msg, kb))
}

// Menu abandons any conversation and shows the menu of the stored role.
func (h *Handlers) Menu(ctx context.Context, req *router.Request) error {
	req.Session.Reset()
	user, err := h.repo.GetUser(ctx, req.Update.UserID)
	if errors.Is(err, model.ErrNotFound) {
		return h.Start(ctx, req)
	}
	if err != nil {
		return err
	}
	switch user.Role {
	case model.RoleClient:
		return req.Reply(ctx, ui.WithKeyboard(ui.MsgClientMenu, ui.ClientKeyboard))
	case model.RoleMaster:
		return req.Reply(ctx, ui.WithKeyboard(ui.MsgMasterMenu, ui.MasterKeyboard))
	}
	return req.Reply(ctx, ui.WithKeyboard(ui.MsgChooseRole, ui.RoleKeyboard))
}

func (h *Handlers) Help(ctx context.Context, req *router.Request) error {
	return req.Reply(ctx, router.Text(ui.MsgHelp))
}

func (h *Handlers) Admin(ctx context.Context, req *router.Request) error {
	return req.Reply(ctx, ui.WithKeyboard(ui.MsgAdminWelcome, ui.AdminKeyboard))
}

// AdStatus reports every campaign with its view progress.
func (h *Handlers) AdStatus(ctx context.Context, req *router.Request) error {
	ads, err := h.repo.ListAds(ctx)
	if err != nil {
		return err
	}
	return req.Reply(ctx, router.Text(browse.FormatAdStatus(ads)))
}

// MyTasks lists the client's latest tasks.
func (h *Handlers) MyTasks(ctx context.Context, req *router.Request) error {
	tasks, err := h.repo.ListTasksByOwner(ctx, req.Update.UserID, h.cfg.MyTasksLimit)
	if err != nil {
		return err
	}
	return req.Reply(ctx, router.Text(ui.TaskList(tasks)))
}

// MakeOffer acknowledges the offer button; the offer conversation is not built yet.
func (h *Handlers) MakeOffer(ctx context.Context, req *router.Request) error {
	arg, _ := req.Update.CallbackArg(ui.CbMakeOfferPrefix)
	logger.LogEvent(ctx, logger.Component(logger.CompBrowse), slog.LevelDebug, "offer.requested",
		slog.String("task_id", arg),
	)
	return req.Out.Answer(ctx, ui.MsgInDevelopment, false)
}

func username(u router.Update) *string {
	if u.Username == "" {
		return nil
	}
	name := u.Username
	return &name
}
