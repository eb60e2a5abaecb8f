package httpapi

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/obhavo-bot/internal/channel"
	"github.com/i474232898/obhavo-bot/internal/common"
	"github.com/i474232898/obhavo-bot/internal/digest"
	"github.com/i474232898/obhavo-bot/internal/telegram"
	"github.com/i474232898/obhavo-bot/internal/user"
	"github.com/i474232898/obhavo-bot/internal/weather"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := channel.ParseSchedule(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("chatid", func(fl validator.FieldLevel) bool {
		return telegram.ValidChatID(fl.Field().String())
	})
	_ = v.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		_, ok := weather.LookupRegion(fl.Field().String())
		return ok
	})
	return v
}

// DigestService is the manual trigger surface. It must be the same
// service the scheduler delivers through.
type DigestService interface {
	Preview(ctx context.Context) (digest.Message, error)
	SendNow(ctx context.Context, chatID string) (digest.Receipt, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. The user
// preference routes are only mounted when users is non-nil.
func RegisterRoutes(app *fiber.App, cache weather.Store, registry channel.Registry, users user.Store, digests DigestService) {
	v1 := app.Group("/api/v1")

	if users != nil {
		registerUserRoutes(v1, users)
	}

	v1.Get("/weather", func(c *fiber.Ctx) error {
		snaps, err := cache.ListAll(c.UserContext())
		if err != nil {
			return err
		}
		byRegion := weather.Index(snaps)

		out := make([]regionWeather, 0, len(weather.Regions()))
		for _, r := range weather.Regions() {
			rw := regionWeather{Region: r}
			if s, ok := byRegion[r.ID]; ok {
				rw.Snapshot = &s
			}
			out = append(out, rw)
		}
		return c.JSON(out)
	})

	v1.Get("/weather/:regionId", func(c *fiber.Ctx) error {
		region, ok := weather.LookupRegion(c.Params("regionId"))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown region")
		}
		snap, err := cache.Get(c.UserContext(), region.ID)
		if err != nil {
			return err
		}
		return c.JSON(regionWeather{Region: region, Snapshot: &snap})
	})

	channels := v1.Group("/channels")

	channels.Get("/", func(c *fiber.Ctx) error {
		list, err := registry.List(c.UserContext())
		if err != nil {
			return err
		}
		if list == nil {
			list = []channel.Destination{}
		}
		return c.JSON(list)
	})

	channels.Post("/", func(c *fiber.Ctx) error {
		var req createChannelRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		d, err := registry.Add(c.UserContext(), req.toDestination())
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	})

	channels.Get("/:chatId", func(c *fiber.Ctx) error {
		d, err := registry.Get(c.UserContext(), c.Params("chatId"))
		if err != nil {
			return err
		}
		return c.JSON(d)
	})

	channels.Delete("/:chatId", func(c *fiber.Ctx) error {
		if err := registry.Remove(c.UserContext(), c.Params("chatId")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	channels.Put("/:chatId/enabled", func(c *fiber.Ctx) error {
		var req enabledRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		chatID := c.Params("chatId")
		if err := registry.SetEnabled(c.UserContext(), chatID, *req.Enabled); err != nil {
			return err
		}
		return respondDestination(c, registry, chatID)
	})

	channels.Put("/:chatId/schedule", func(c *fiber.Ctx) error {
		var req scheduleRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		chatID := c.Params("chatId")
		sched, _ := channel.ParseSchedule(req.ScheduledTime)
		if err := registry.SetSchedule(c.UserContext(), chatID, sched.String()); err != nil {
			return err
		}
		return respondDestination(c, registry, chatID)
	})

	channels.Post("/:chatId/test", func(c *fiber.Ctx) error {
		d, err := registry.Get(c.UserContext(), c.Params("chatId"))
		if err != nil {
			return err
		}
		return respondSend(c, digests, d.ChatID)
	})

	v1.Get("/digest/preview", func(c *fiber.Ctx) error {
		msg, err := digests.Preview(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(msg)
	})

	v1.Post("/digest/send", func(c *fiber.Ctx) error {
		var req sendRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		return respondSend(c, digests, strings.TrimSpace(req.ChatID))
	})
}

// registerUserRoutes serves the per-user preferences the Mini App edits.
func registerUserRoutes(v1 fiber.Router, users user.Store) {
	g := v1.Group("/users")

	g.Get("/:telegramId", func(c *fiber.Ctx) error {
		p, err := users.GetByTelegramID(c.UserContext(), c.Params("telegramId"))
		if err != nil {
			return err
		}
		return c.JSON(p)
	})

	g.Post("/", func(c *fiber.Ctx) error {
		var req createUserRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		p, err := users.Create(c.UserContext(), user.Preference{
			TelegramID: req.TelegramID,
			Username:   req.Username,
			Lang:       user.Lang(common.OrDefault(req.Lang, string(user.LangUzbek))),
			Region:     common.OrDefault(req.Region, user.DefaultRegion),
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	g.Patch("/:telegramId/preferences", func(c *fiber.Ctx) error {
		var req preferencesRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		p, err := users.GetByTelegramID(c.UserContext(), c.Params("telegramId"))
		if err != nil {
			return err
		}
		if req.Lang != "" {
			p.Lang = user.Lang(req.Lang)
		}
		if req.Region != "" {
			p.Region = req.Region
		}
		if err := users.Update(c.UserContext(), p); err != nil {
			return err
		}
		return c.JSON(p)
	})
}

type createUserRequest struct {
	TelegramID string `json:"telegramId" validate:"required,numeric"`
	Username   string `json:"username" validate:"max=64"`
	Lang       string `json:"lang" validate:"omitempty,oneof=ar uz"`
	Region     string `json:"region" validate:"omitempty,region"`
}

type preferencesRequest struct {
	Lang   string `json:"lang" validate:"omitempty,oneof=ar uz"`
	Region string `json:"region" validate:"omitempty,region"`
}

type regionWeather struct {
	Region   weather.Region    `json:"region"`
	Snapshot *weather.Snapshot `json:"snapshot"`
}

type createChannelRequest struct {
	ChatID        string       `json:"chatId" validate:"required,chatid"`
	Title         string       `json:"title" validate:"max=255"`
	Type          channel.Type `json:"type" validate:"omitempty,oneof=channel group"`
	Enabled       *bool        `json:"enabled"`
	ScheduledTime string       `json:"scheduledTime" validate:"omitempty,hhmm"`
}

func (r createChannelRequest) toDestination() channel.Destination {
	d := channel.Destination{
		ChatID:  strings.TrimSpace(r.ChatID),
		Title:   r.Title,
		Type:    r.Type,
		Enabled: true,
	}
	if d.Type == "" {
		d.Type = channel.TypeChannel
	}
	if r.Enabled != nil {
		d.Enabled = *r.Enabled
	}
	if r.ScheduledTime != "" {
		sched, _ := channel.ParseSchedule(r.ScheduledTime)
		d.ScheduledTime = sched.String()
	}
	return d
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type scheduleRequest struct {
	ScheduledTime string `json:"scheduledTime" validate:"required,hhmm"`
}

type sendRequest struct {
	ChatID string `json:"chatId" validate:"required,chatid"`
}

// sendResult is the explicit outcome shown to the operator.
type sendResult struct {
	OK        bool   `json:"ok"`
	MessageID int    `json:"messageId,omitempty"`
	Raw       string `json:"raw,omitempty"`
	Error     string `json:"error,omitempty"`
}

func respondSend(c *fiber.Ctx, digests DigestService, chatID string) error {
	receipt, err := digests.SendNow(c.UserContext(), chatID)
	res := sendResult{OK: receipt.OK, MessageID: receipt.MessageID, Raw: receipt.Raw}
	if err != nil {
		res.OK = false
		res.Error = err.Error()
		status := fiber.StatusInternalServerError
		if errors.Is(err, digest.ErrDeliveryFailed) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(res)
	}
	return c.JSON(res)
}

func respondDestination(c *fiber.Ctx, registry channel.Registry, chatID string) error {
	d, err := registry.Get(c.UserContext(), chatID)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validate.Struct(out)
}
