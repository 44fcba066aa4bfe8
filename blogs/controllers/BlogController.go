package controllers

import (
	"errors"
	"strconv"
	"strings"

	blog_repositories "elasticsearch-demo-backend/blogs/repositories"
	"elasticsearch-demo-backend/config"
	"elasticsearch-demo-backend/db/models"
	"elasticsearch-demo-backend/search"
	"elasticsearch-demo-backend/utils"
	"elasticsearch-demo-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type BlogController struct {
	BlogRepo blog_repositories.BlogRepository
}

func validateBlog(blog models.Blog) error {
	if blog.ID <= 0 {
		return errors.New("id must be a positive number")
	}
	if strings.TrimSpace(blog.MasterName) == "" {
		return errors.New("masterName is required")
	}
	if blog.ArticleNum < 0 || blog.CommentNum < 0 || blog.ThumbNum < 0 {
		return errors.New("counts cannot be negative")
	}
	return nil
}

func (bc *BlogController) CreateBlogController(c *fiber.Ctx) error {
	var blog models.Blog
	if err := c.BodyParser(&blog); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validateBlog(blog); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	saved, err := bc.BlogRepo.Save(c.UserContext(), blog)
	if err != nil {
		config.Logger.Error("Failed to save blog", zap.Int64("id", blog.ID), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to save blog")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": saved})
}

func (bc *BlogController) UpdateBlogController(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid blog id"})
	}
	var blog models.Blog
	if err := c.BodyParser(&blog); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	blog.ID = id
	if err := validateBlog(blog); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if _, err := bc.BlogRepo.FindByID(c.UserContext(), blog.DocumentID()); err != nil {
		if errors.Is(err, search.ErrDocumentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Blog not found"})
		}
		return utils.SearchErrorResponse(c, err, "Failed to load blog")
	}

	saved, err := bc.BlogRepo.Save(c.UserContext(), blog)
	if err != nil {
		config.Logger.Error("Failed to update blog", zap.Int64("id", id), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to update blog")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": saved})
}

func (bc *BlogController) GetBlogController(c *fiber.Ctx) error {
	blog, err := bc.BlogRepo.FindByID(c.UserContext(), c.Params("id"))
	if errors.Is(err, search.ErrDocumentNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Blog not found"})
	}
	if err != nil {
		config.Logger.Error("Failed to fetch blog", zap.String("id", c.Params("id")), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to fetch blog")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": blog})
}

func (bc *BlogController) GetBlogsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	page, err := bc.BlogRepo.FindAllPaged(c.UserContext(), params.PageRequest(), params.Sorts()...)
	if err != nil {
		config.Logger.Error("Failed to fetch paginated blogs", zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to fetch blogs")
	}
	return c.Status(fiber.StatusOK).JSON(pagination.NewPaginatedResponse(c, page, params))
}

func (bc *BlogController) FindBlogsByMasterNameController(c *fiber.Ctx) error {
	blogs, err := bc.BlogRepo.FindByMasterName(c.UserContext(), c.Params("name"))
	if err != nil {
		config.Logger.Error("Master name search failed", zap.String("name", c.Params("name")), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to search blogs")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": blogs, "total": len(blogs)})
}

func (bc *BlogController) DeleteBlogController(c *fiber.Ctx) error {
	if err := bc.BlogRepo.DeleteByID(c.UserContext(), c.Params("id")); err != nil {
		config.Logger.Error("Failed to delete blog", zap.String("id", c.Params("id")), zap.Error(err))
		return utils.SearchErrorResponse(c, err, "Failed to delete blog")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
