package controller

import (
	"net/http"
	"strconv"

	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

func (c *UserController) Me(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: service.ErrInvalidToken.Msg})
	}

	user, err := c.userService.GetUser(ctx.Request().Context(), userID)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": userID}, "Get current user")
	}
	return ctx.JSON(http.StatusOK, httpdto.NewUserResponse(user))
}

func (c *UserController) List(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	offset, _ := strconv.Atoi(ctx.QueryParam("offset"))

	users, err := c.userService.ListUsers(ctx.Request().Context(), limit, offset)
	if err != nil {
		return respondError(ctx, err, nil, "List users")
	}

	resp := httpdto.UserListResponse{
		Users:  make([]httpdto.UserResponse, 0, len(users)),
		Limit:  limit,
		Offset: offset,
	}
	for _, u := range users {
		resp.Users = append(resp.Users, httpdto.NewUserResponse(u))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (c *UserController) Get(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return badRequest(ctx, "invalid user id")
	}

	user, err := c.userService.GetUser(ctx.Request().Context(), id)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": id}, "Get user")
	}
	return ctx.JSON(http.StatusOK, httpdto.NewUserResponse(user))
}

func (c *UserController) UpdateRole(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return badRequest(ctx, "invalid user id")
	}

	var req httpdto.UpdateRoleRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err = req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	user, err := c.userService.UpdateRole(ctx.Request().Context(), id, req.Role)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": id}, "Update role")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  id,
		"role":     user.Role,
		"admin_id": ctx.Get("user_id"),
	}).Info("User role updated")
	return ctx.JSON(http.StatusOK, httpdto.NewUserResponse(user))
}

func (c *UserController) Delete(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return badRequest(ctx, "invalid user id")
	}

	if err = c.userService.DeleteUser(ctx.Request().Context(), id); err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": id}, "Delete user")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  id,
		"admin_id": ctx.Get("user_id"),
	}).Info("User deleted")
	return ctx.NoContent(http.StatusNoContent)
}
