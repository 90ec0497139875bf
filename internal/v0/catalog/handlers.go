package catalog

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"

	"MessAPI/internal/meal"
	"MessAPI/internal/v0/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaxImageSize caps uploaded pictures
const MaxImageSize = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Handler serves the meal catalog. images may be nil when uploads are off.
type Handler struct {
	repo   *Repository
	quotas meal.QuotaTable
	images ImageStore
}

func NewHandler(repo *Repository, quotas meal.QuotaTable, images ImageStore) *Handler {
	return &Handler{repo: repo, quotas: quotas, images: images}
}

// ListItems
// GET /api/v0/catalog/items?category=&messType=&subcategory=
func (h *Handler) ListItems(c *gin.Context) {
	var f Filter
	if v := c.Query("category"); v != "" {
		cat, err := meal.ParseCategory(v)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		f.Category = cat
	}
	if v := c.Query("messType"); v != "" {
		mt, err := meal.ParseMessType(v)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, err.Error())
			return
		}
		f.MessType = mt
	}
	f.Subcategory = c.Query("subcategory")

	items, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		log.Printf("catalog: list: %v", err)
		common.Fail(c, http.StatusInternalServerError, "failed to list meal items")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"items": items})
}

// GetItem
// GET /api/v0/catalog/items/:id
func (h *Handler) GetItem(c *gin.Context) {
	item, ok := h.loadItem(c)
	if !ok {
		return
	}
	common.Success(c, http.StatusOK, item)
}

// quotaWarnings flags items no student could ever select
func (h *Handler) quotaWarnings(item *MealItem) []string {
	if h.quotas.Has(item.Category, item.MessType, item.Subcategory) {
		return []string{}
	}
	msg := fmt.Sprintf("no quota row for %s/%s/%s; students cannot select this item", item.Category, item.MessType, item.Subcategory)
	log.Printf("catalog: item %s: %s", item.ID, msg)
	return []string{msg}
}

// CreateItem
// POST /api/admin/catalog/items
func (h *Handler) CreateItem(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.repo.Create(c.Request.Context(), req)
	if errors.Is(err, ErrInvalidItem) {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("catalog: create: %v", err)
		common.Fail(c, http.StatusInternalServerError, "failed to create meal item")
		return
	}
	common.Success(c, http.StatusCreated, gin.H{"item": item, "warnings": h.quotaWarnings(item)})
}

// UpdateItem
// PATCH /api/admin/catalog/items/:id
func (h *Handler) UpdateItem(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.repo.Update(c.Request.Context(), c.Param("id"), req)
	switch {
	case errors.Is(err, ErrInvalidItem):
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("catalog: update %s: %v", c.Param("id"), err)
		common.Fail(c, http.StatusInternalServerError, "failed to update meal item")
		return
	case item == nil:
		common.Fail(c, http.StatusNotFound, "meal item not found")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"item": item, "warnings": h.quotaWarnings(item)})
}

// DeleteItem
// DELETE /api/admin/catalog/items/:id
func (h *Handler) DeleteItem(c *gin.Context) {
	found, err := h.repo.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("catalog: delete %s: %v", c.Param("id"), err)
		common.Fail(c, http.StatusInternalServerError, "failed to delete meal item")
		return
	}
	if !found {
		common.Fail(c, http.StatusNotFound, "meal item not found")
		return
	}
	common.Success(c, http.StatusOK, gin.H{"message": "meal item deleted"})
}

// UploadImage stores the multipart "image" field and links it to the item
// POST /api/admin/catalog/items/:id/image
func (h *Handler) UploadImage(c *gin.Context) {
	if h.images == nil {
		common.Fail(c, http.StatusServiceUnavailable, ErrImagesDisabled.Error())
		return
	}
	item, ok := h.loadItem(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "missing image file")
		return
	}
	if file.Size > MaxImageSize {
		common.Fail(c, http.StatusRequestEntityTooLarge, "image must be at most 5MB")
		return
	}
	contentType := strings.ToLower(file.Header.Get("Content-Type"))
	ext, ok := imageExtensions[contentType]
	if !ok {
		common.Fail(c, http.StatusUnsupportedMediaType, "image must be JPEG, PNG or WebP")
		return
	}

	f, err := file.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "unreadable image file")
		return
	}
	defer f.Close()

	key := path.Join("meal-items", item.ID, uuid.NewString()+ext)
	url, err := h.images.Put(c.Request.Context(), key, contentType, f, file.Size)
	if err != nil {
		log.Printf("catalog: upload image for %s: %v", item.ID, err)
		common.Fail(c, http.StatusBadGateway, "failed to store image")
		return
	}
	if err := h.repo.SetImageURL(c.Request.Context(), item.ID, url); err != nil {
		log.Printf("catalog: save image url for %s: %v", item.ID, err)
		common.Fail(c, http.StatusInternalServerError, "failed to save image")
		return
	}
	item.ImageURL = &url
	common.Success(c, http.StatusOK, gin.H{"item": item})
}

func (h *Handler) loadItem(c *gin.Context) (*MealItem, bool) {
	item, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("catalog: get %s: %v", c.Param("id"), err)
		common.Fail(c, http.StatusInternalServerError, "failed to load meal item")
		return nil, false
	}
	if item == nil {
		common.Fail(c, http.StatusNotFound, "meal item not found")
		return nil, false
	}
	return item, true
}

/*
This project is the backend API for the campus mess meal-selection service. Students pick their meals for each selection period within the mess quotas, and admins manage the catalog, periods and accounts.
MessAPI Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
