package adaptor

import (
	"net/http"

	"github.com/Rishabh-k-Paliwal/astrologix/internal/usecase"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"
)

type CatalogHandler struct {
	service usecase.CatalogService
}

func NewCatalogHandler(service usecase.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// List handles GET /api/services
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, "", h.service.List())
}
