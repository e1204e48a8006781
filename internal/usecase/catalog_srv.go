package usecase

import (
	"github.com/Rishabh-k-Paliwal/astrologix/internal/dto/response"
	"github.com/Rishabh-k-Paliwal/astrologix/pkg/catalog"
)

type CatalogService interface {
	List() *response.CatalogResponse
}

type catalogService struct {
	catalog *catalog.Catalog
}

func NewCatalogService(c *catalog.Catalog) CatalogService {
	if c == nil {
		c = catalog.Default()
	}
	return &catalogService{catalog: c}
}

func (s *catalogService) List() *response.CatalogResponse {
	return &response.CatalogResponse{
		Packages:          s.catalog.Packages(),
		ConsultationTypes: s.catalog.ConsultationTypes(),
	}
}
