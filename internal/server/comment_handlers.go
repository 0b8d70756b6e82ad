package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Text   string `json:"text"`
	PostID *uint  `json:"post_id"`
}

// CreateComment handles POST /api/comments
// @Summary Create comment
// @Description Schedules the post author's automatic reply when the post has one configured
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/ [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), middleware.CurrentUser(c), service.CreateCommentInput{
		Text:   req.Text,
		PostID: req.PostID,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ReplyToComment handles POST /api/comments/:id/reply
// @Summary Reply to comment
// @Description The reply joins the parent comment's post; any post_id in the body is ignored
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Parent comment ID"
// @Param request body commentRequest true "Reply"
// @Success 201 {object} models.Reply
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id}/reply [post]
func (s *Server) ReplyToComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	reply, err := s.commentService.ReplyToComment(c.UserContext(), middleware.CurrentUser(c), id, req.Text)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply.ToReply())
}

// GetComment handles GET /api/comments/:id
// @Summary Get comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [get]
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.GetComment(c.UserContext(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(comment)
}

// UpdateComment handles PUT /api/comments/:id
// @Summary Update comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body commentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), middleware.CurrentUser(c), id, req.Text)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CommentsDailyBreakdown handles GET /api/comments/comments-daily-breakdown
// @Summary Daily comment counts
// @Description Per-day totals and blocked counts over an inclusive date range; days without comments are omitted
// @Tags comments
// @Produce json
// @Param date_from query string true "First day (YYYY-MM-DD)"
// @Param date_to query string true "Last day (YYYY-MM-DD)"
// @Success 200 {array} models.DailyCommentStat
// @Failure 400 {object} models.ErrorResponse
// @Router /comments/comments-daily-breakdown [get]
func (s *Server) CommentsDailyBreakdown(c *fiber.Ctx) error {
	stats, err := s.commentService.DailyBreakdown(c.UserContext(), c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(stats)
}
