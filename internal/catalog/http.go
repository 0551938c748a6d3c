package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/vendaro/vendaro/internal/platform/request"
	"github.com/vendaro/vendaro/internal/platform/respond"
	"github.com/vendaro/vendaro/pkg/convert"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/brands", handler.listBrands)
	router.Get("/brands/roots", handler.listBrandRoots)
	router.Get("/brands/tree", handler.brandTree)
	router.Get("/locations", handler.listLocations)
	router.Get("/attributes/{slug}/terms", handler.listAttributeTerms)
}

func (handler *Handler) listBrands(writer http.ResponseWriter, request *http.Request) {
	force := convert.ToBool(request.URL.Query().Get("force"))
	respond.OK(writer, handler.service.Brands(request.Context(), force))
}

func (handler *Handler) listBrandRoots(writer http.ResponseWriter, request *http.Request) {
	force := convert.ToBool(request.URL.Query().Get("force"))
	respond.OK(writer, Roots(handler.service.Brands(request.Context(), force)))
}

func (handler *Handler) brandTree(writer http.ResponseWriter, request *http.Request) {
	force := convert.ToBool(request.URL.Query().Get("force"))
	respond.OK(writer, handler.service.BrandTree(request.Context(), force))
}

func (handler *Handler) listLocations(writer http.ResponseWriter, request *http.Request) {
	force := convert.ToBool(request.URL.Query().Get("force"))
	respond.OK(writer, handler.service.Locations(request.Context(), force))
}

func (handler *Handler) listAttributeTerms(writer http.ResponseWriter, request *http.Request) {
	attribute := requestutil.Param(request, "slug")
	force := convert.ToBool(request.URL.Query().Get("force"))
	respond.OK(writer, handler.service.AttributeTerms(request.Context(), attribute, force))
}

// Sync handles POST /api/v1/sync, the client-facing full re-walk trigger.
func (handler *Handler) Sync(writer http.ResponseWriter, request *http.Request) {
	force := convert.ToBool(request.URL.Query().Get("force"))
	respond.OK(writer, handler.service.Sync(request.Context(), force))
}
