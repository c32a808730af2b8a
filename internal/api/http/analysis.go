package httpapi

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/i474232898/weather-insight/internal/analysis"
	"github.com/i474232898/weather-insight/internal/reveal"
)

const (
	streamKeepAlive = 15 * time.Second

	// streamWriteTimeout bounds each event write. It must exceed streamKeepAlive.
	streamWriteTimeout = 30 * time.Second
)

// sessionParam holds the :id path parameter.
type sessionParam struct {
	ID string `validate:"required,uuid"`
}

func registerAnalysisRoutes(r fiber.Router, sessions *analysis.Registry, streamInterval time.Duration) {
	if streamInterval <= 0 {
		streamInterval = reveal.DefaultInterval
	}

	g := r.Group("/analysis/sessions")

	g.Post("/", func(c *fiber.Ctx) error {
		s := sessions.Create()
		return c.Status(fiber.StatusCreated).JSON(s.View())
	})

	g.Get("/:id", func(c *fiber.Ctx) error {
		s, err := lookupSession(c, sessions)
		if err != nil {
			return err
		}
		return c.JSON(s.View())
	})

	g.Post("/:id/run", func(c *fiber.Ctx) error {
		s, err := lookupSession(c, sessions)
		if err != nil {
			return err
		}

		var req analysis.Request
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid analysis request body")
			}
		}

		err = s.Run(c.UserContext(), req)
		var failure *analysis.Failure
		switch {
		case err == nil:
		case errors.As(err, &failure):
			log.Printf("ERROR: analysis %s failed (%s): %v", s.ID, failure.Kind, failure.Err)
		case errors.Is(err, analysis.ErrSuperseded):
			return c.Status(fiber.StatusConflict).JSON(s.View())
		case errors.Is(err, analysis.ErrSessionNotFound):
			return fiber.NewError(fiber.StatusNotFound, "analysis session not found")
		default:
			return err
		}

		return c.JSON(s.View())
	})

	g.Get("/:id/stream", func(c *fiber.Ctx) error {
		s, err := lookupSession(c, sessions)
		if err != nil {
			return err
		}

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")

		conn := c.Context().Conn()
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			streamSession(w, conn, s, streamInterval)
		}))
		return nil
	})

	g.Delete("/:id", func(c *fiber.Ctx) error {
		id, err := parseSessionID(c)
		if err != nil {
			return err
		}
		if err := sessions.Delete(id); err != nil {
			if errors.Is(err, analysis.ErrSessionNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "analysis session not found")
			}
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func parseSessionID(c *fiber.Ctx) (uuid.UUID, error) {
	p := sessionParam{ID: c.Params("id")}
	if err := validate.Struct(p); err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func lookupSession(c *fiber.Ctx, sessions *analysis.Registry) (*analysis.Session, error) {
	id, err := parseSessionID(c)
	if err != nil {
		return nil, err
	}
	s, err := sessions.Get(id)
	if err != nil {
		if errors.Is(err, analysis.ErrSessionNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "analysis session not found")
		}
		return nil, err
	}
	return s, nil
}

// streamSession writes a "reveal" event whenever the session view changes and
// stops once the session settles (reveal done, attempt failed, or closed).
//
// The server applies its WriteTimeout once per response, which would cut a long
// reveal short, so the stream moves the connection deadline before every write.
func streamSession(w *bufio.Writer, conn net.Conn, s *analysis.Session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last analysis.View
	first := true
	lastWrite := time.Now()

	for {
		v := s.View()
		if first || v != last {
			extendWriteDeadline(conn)
			if err := writeEvent(w, "reveal", v); err != nil {
				return
			}
			first = false
			last = v
			lastWrite = time.Now()
		} else if time.Since(lastWrite) >= streamKeepAlive {
			extendWriteDeadline(conn)
			if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
			lastWrite = time.Now()
		}

		if v.Settled() {
			return
		}
		<-ticker.C
	}
}

func extendWriteDeadline(conn net.Conn) {
	if conn == nil {
		return
	}
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		log.Printf("DEBUG: stream write deadline: %v", err)
	}
}

func writeEvent(w *bufio.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
