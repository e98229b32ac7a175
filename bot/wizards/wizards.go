// Package wizards declares the bot's data-entry conversations: task creation,
// master profile and ad campaign.
package wizards

import (
	"context"
	"fmt"

	"github.com/m3rciful/delofix/bot/model"
	"github.com/m3rciful/delofix/bot/repository"
	"github.com/m3rciful/delofix/bot/ui"
	"github.com/m3rciful/delofix/core/telegram/router"
	"github.com/m3rciful/delofix/core/telegram/state"
	"github.com/m3rciful/delofix/core/wizard"
)

const (
	TaskDescription state.State = "task:description"
	TaskPhoto       state.State = "task:photo"
	TaskLocation    state.State = "task:location"

	ProfileName   state.State = "profile:name"
	ProfileSkills state.State = "profile:skills"
	ProfileArea   state.State = "profile:area"

	AdText        state.State = "ad:text"
	AdPhoto       state.State = "ad:photo"
	AdButtonText  state.State = "ad:button_text"
	AdButtonURL   state.State = "ad:button_url"
	AdTargetViews state.State = "ad:target_views"
)

// Session field keys.
const (
	FieldDescription = "description"
	FieldPhotoID     = "photo_id"
	FieldLocation    = "location"
	FieldName        = "name"
	FieldSkills      = "skills"
	FieldArea        = "area"
	FieldText        = "text"
	FieldButtonText  = "button_text"
	FieldButtonURL   = "button_url"
	FieldTargetViews = "target_views"
)

// Task collects description, optional photo and location, then publishes a task.
func Task(repo repository.Repository) *wizard.Wizard {
	return wizard.MustNew(wizard.Definition{
		Name: "task",
		Steps: []wizard.Step{
			{
				State:  TaskDescription,
				Prompt: ui.WithoutKeyboard(ui.MsgTaskDescription),
				Inputs: []wizard.Input{
					{Match: router.PlainText, Field: FieldDescription, Next: TaskPhoto},
				},
			},
			{
				State:  TaskPhoto,
				Prompt: ui.WithKeyboard(ui.MsgTaskPhoto, ui.SkipKeyboard(ui.BtnSkip)),
				Inputs: []wizard.Input{
					{Name: "photo", Match: router.HasPhoto, Field: FieldPhotoID, Value: wizard.Photo, Next: TaskLocation},
					{Name: "skip_photo", Match: router.TextEquals(ui.BtnSkip), Field: FieldPhotoID, Value: wizard.Absent, Next: TaskLocation},
				},
			},
			{
				State:  TaskLocation,
				Prompt: ui.WithoutKeyboard(ui.MsgTaskLocation),
				Inputs: []wizard.Input{
					{Match: router.PlainText, Field: FieldLocation, Next: wizard.Terminal},
				},
			},
		},
		Finalize: func(ctx context.Context, req *router.Request, f *state.Fields) error {
			dto := repository.NewTask{
				OwnerID:     req.Update.UserID,
				Description: text(f, FieldDescription),
				PhotoID:     f.OptionalString(FieldPhotoID),
				Location:    text(f, FieldLocation),
			}
			if _, err := repo.InsertClientTask(ctx, dto); err != nil {
				return err
			}
			return req.Reply(ctx, ui.WithKeyboard(ui.MsgTaskPublished, ui.ClientKeyboard))
		},
	})
}

// Profile collects a master's name, skills and service area and upserts the profile.
func Profile(repo repository.Repository) *wizard.Wizard {
	return wizard.MustNew(wizard.Definition{
		Name: "profile",
		Steps: []wizard.Step{
			{
				State:  ProfileName,
				Prompt: ui.WithoutKeyboard(ui.MsgProfileName),
				Inputs: []wizard.Input{{Match: router.PlainText, Field: FieldName, Next: ProfileSkills}},
			},
			{
				State:  ProfileSkills,
				Prompt: router.Text(ui.MsgProfileSkills),
				Inputs: []wizard.Input{{Match: router.PlainText, Field: FieldSkills, Next: ProfileArea}},
			},
			{
				State:  ProfileArea,
				Prompt: router.Text(ui.MsgProfileArea),
				Inputs: []wizard.Input{{Match: router.PlainText, Field: FieldArea, Next: wizard.Terminal}},
			},
		},
		Finalize: func(ctx context.Context, req *router.Request, f *state.Fields) error {
			dto := repository.MasterProfile{
				UserID:      req.Update.UserID,
				Name:        text(f, FieldName),
				Skills:      text(f, FieldSkills),
				ServiceArea: text(f, FieldArea),
			}
			if err := repo.UpsertMasterProfile(ctx, dto); err != nil {
				return err
			}
			return req.Reply(ctx, ui.WithKeyboard(ui.MsgProfileSaved, ui.MasterKeyboard))
		},
	})
}

// Ad collects a campaign and activates it, replacing whatever ran before.
// The button step branches: "no button" jumps straight to the view count,
// any other text asks for the link first.
func Ad(repo repository.Repository) *wizard.Wizard {
	return wizard.MustNew(wizard.Definition{
		Name: "ad",
		Steps: []wizard.Step{
			{
				State:  AdText,
				Prompt: ui.WithoutKeyboard(ui.MsgAdText),
				Inputs: []wizard.Input{{Match: router.PlainText, Field: FieldText, Next: AdPhoto}},
			},
			{
				State:  AdPhoto,
				Prompt: ui.WithKeyboard(ui.MsgAdPhoto, ui.SkipKeyboard(ui.BtnSkip)),
				Inputs: []wizard.Input{
					{Name: "photo", Match: router.HasPhoto, Field: FieldPhotoID, Value: wizard.Photo, Next: AdButtonText},
					{Name: "skip_photo", Match: router.TextEquals(ui.BtnSkip), Field: FieldPhotoID, Value: wizard.Absent, Next: AdButtonText},
				},
			},
			{
				State:  AdButtonText,
				Prompt: ui.WithKeyboard(ui.MsgAdButtonText, ui.SkipKeyboard(ui.BtnNoButton)),
				Inputs: []wizard.Input{
					{
						Name:  "no_button",
						Match: router.TextEquals(ui.BtnNoButton),
						Field: FieldButtonText,
						Value: wizard.Absent,
						Set:   map[string]any{FieldButtonURL: nil},
						Next:  AdTargetViews,
					},
					{Match: router.PlainText, Field: FieldButtonText, Next: AdButtonURL},
				},
			},
			{
				State:  AdButtonURL,
				Prompt: ui.WithoutKeyboard(ui.MsgAdButtonURL),
				Inputs: []wizard.Input{
					{Match: router.All(router.PlainText, router.TextPrefix("http")), Field: FieldButtonURL, Next: AdTargetViews},
				},
			},
			{
				State:  AdTargetViews,
				Prompt: ui.WithoutKeyboard(ui.MsgAdTargetViews),
				Inputs: []wizard.Input{
					{Match: router.Digits, Field: FieldTargetViews, Value: wizard.Number, Next: wizard.Terminal},
				},
			},
		},
		Finalize: func(ctx context.Context, req *router.Request, f *state.Fields) error {
			views, ok := f.Int(FieldTargetViews)
			if !ok {
				return fmt.Errorf("ad: %s: %w", FieldTargetViews, model.ErrInvalid)
			}
			dto := repository.NewAd{
				Text:        text(f, FieldText),
				PhotoID:     f.OptionalString(FieldPhotoID),
				ButtonText:  f.OptionalString(FieldButtonText),
				ButtonURL:   f.OptionalString(FieldButtonURL),
				TargetViews: views,
			}
			if _, err := repo.ActivateAd(ctx, dto); err != nil {
				return err
			}
			return req.Reply(ctx, ui.WithKeyboard(ui.MsgAdActivated, ui.AdminKeyboard))
		},
	})
}

// text returns a string field; a missing one is left to DTO validation.
func text(f *state.Fields, key string) string {
	s, _ := f.String(key)
	return s
}
