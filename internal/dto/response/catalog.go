package response

import "github.com/Rishabh-k-Paliwal/astrologix/pkg/catalog"

type CatalogResponse struct {
	Packages          []catalog.Package          `json:"packages"`
	ConsultationTypes []catalog.ConsultationType `json:"consultationTypes"`
}
