package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
)

func (s *Server) extract(c *fiber.Ctx) error {
	rawID := strings.TrimSpace(c.Params("id"))
	userID := strings.TrimSpace(c.Get(HeaderUserID))

	if userID == "" {
		return common.WrapError(common.ErrUnauthorized, "missing "+HeaderUserID)
	}
	if err := common.NewValidator().
		Field("document_id", rawID, common.Required, common.UUID).
		Field("user_id", userID, common.MaxLength(128)).
		Error(); err != nil {
		return err
	}
	documentID := uuid.MustParse(rawID)

	ctx := common.WithUserID(c.UserContext(), userID)
	ctx = common.WithRequestID(ctx, c.GetRespHeader(fiber.HeaderXRequestID))
	ctx, cancel := common.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	out, err := s.opts.Extractor.Extract(ctx, documentID, userID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) file(c *fiber.Ctx) error {
	path := c.Params("*")
	token := c.Query("token")
	if path == "" || token == "" {
		return common.WrapError(common.ErrUnauthorized, "missing download token")
	}
	data, err := s.opts.Files.Open(path, token)
	if err != nil {
		// do not reveal whether an unauthorized path exists
		if errors.Is(err, common.ErrUnauthorized) {
			return c.SendStatus(fiber.StatusForbidden)
		}
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(data)
}
