package tasks

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	taskguard "github.com/goliatone/go-taskguard"
	"github.com/goliatone/go-taskguard/middleware/jwtware"
)

type ControllerRoutes struct {
	Collection string
	Item       string
}

// Controller exposes task CRUD as a JSON API. All routes sit behind
// the JWT middleware; the principal comes from fiber locals, never
// from the payload.
type Controller struct {
	Debug   bool
	Logger  taskguard.Logger
	Service *Service
	Routes  *ControllerRoutes
}

type ControllerOption func(*Controller) *Controller

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Routes: &ControllerRoutes{
			Collection: "/api/tasks",
			Item:       "/api/tasks/:id",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing Service in tasks controller...")
	}

	if c.Logger == nil {
		panic("Missing Logger in tasks controller...")
	}

	return c
}

func WithService(s *Service) ControllerOption {
	return func(c *Controller) *Controller {
		c.Service = s
		return c
	}
}

func WithLogger(l taskguard.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		c.Logger = l
		return c
	}
}

// RegisterRoutes mounts the CRUD endpoints on a router that already
// runs the JWT middleware.
func RegisterRoutes(app fiber.Router, opts ...ControllerOption) *Controller {
	controller := NewController(opts...)

	app.Get(controller.Routes.Collection, controller.List)
	app.Post(controller.Routes.Collection, controller.Create)
	app.Get(controller.Routes.Item, controller.Show)
	app.Put(controller.Routes.Item, controller.Update)
	app.Delete(controller.Routes.Item, controller.Destroy)

	return controller
}

// TaskPayload is the create/update body. It deliberately has no owner
// field; ownership is taken from the principal.
type TaskPayload struct {
	Title       string     `form:"title" json:"title"`
	Description string     `form:"description" json:"description"`
	Done        bool       `form:"done" json:"done"`
	DueAt       *time.Time `form:"due_at" json:"due_at"`
}

// Validate will run validation rules
func (p TaskPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
			validation.Field(&p.Description, validation.Length(0, 2000)),
		)
	}, "Invalid task payload")
}

func (p TaskPayload) toTask() *Task {
	return &Task{
		Title:       p.Title,
		Description: p.Description,
		Done:        p.Done,
		DueAt:       p.DueAt,
	}
}

func (t *Controller) List(c *fiber.Ctx) error {
	principal, err := jwtware.PrincipalFromCtx(c)
	if err != nil {
		return taskguard.WriteError(c, err)
	}

	records, err := t.Service.List(c.UserContext(), principal)
	if err != nil {
		t.Logger.Error("list tasks", "error", err)
		return taskguard.WriteError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"items": records,
		"count": len(records),
	})
}

func (t *Controller) Create(c *fiber.Ctx) error {
	principal, err := jwtware.PrincipalFromCtx(c)
	if err != nil {
		return taskguard.WriteError(c, err)
	}

	payload := new(TaskPayload)
	if err := c.BodyParser(payload); err != nil {
		t.Logger.Error("create task parse payload", "error", err)
		return taskguard.WriteError(c, errors.Wrap(err, errors.CategoryBadInput, "Failed to parse task payload"))
	}

	if err := payload.Validate(); err != nil {
		return taskguard.WriteError(c, err)
	}

	record, err := t.Service.Create(c.UserContext(), principal, payload.toTask())
	if err != nil {
		t.Logger.Error("create task", "error", err)
		return taskguard.WriteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (t *Controller) Show(c *fiber.Ctx) error {
	principal, err := jwtware.PrincipalFromCtx(c)
	if err != nil {
		return taskguard.WriteError(c, err)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return taskguard.WriteError(c, errors.Wrap(err, errors.CategoryBadInput, "Invalid task id"))
	}

	record, err := t.Service.Get(c.UserContext(), principal, int64(id))
	if err != nil {
		return taskguard.WriteError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func (t *Controller) Update(c *fiber.Ctx) error {
	principal, err := jwtware.PrincipalFromCtx(c)
	if err != nil {
		return taskguard.WriteError(c, err)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return taskguard.WriteError(c, errors.Wrap(err, errors.CategoryBadInput, "Invalid task id"))
	}

	payload := new(TaskPayload)
	if err := c.BodyParser(payload); err != nil {
		t.Logger.Error("update task parse payload", "error", err)
		return taskguard.WriteError(c, errors.Wrap(err, errors.CategoryBadInput, "Failed to parse task payload"))
	}

	if err := payload.Validate(); err != nil {
		return taskguard.WriteError(c, err)
	}

	record, err := t.Service.Update(c.UserContext(), principal, int64(id), payload.toTask())
	if err != nil {
		t.Logger.Error("update task", "task_id", id, "error", err)
		return taskguard.WriteError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func (t *Controller) Destroy(c *fiber.Ctx) error {
	principal, err := jwtware.PrincipalFromCtx(c)
	if err != nil {
		return taskguard.WriteError(c, err)
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return taskguard.WriteError(c, errors.Wrap(err, errors.CategoryBadInput, "Invalid task id"))
	}

	if err := t.Service.Delete(c.UserContext(), principal, int64(id)); err != nil {
		t.Logger.Error("delete task", "task_id", id, "error", err)
		return taskguard.WriteError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
