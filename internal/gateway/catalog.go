package gateway

import (
	"context"
	"net/url"
	"strings"

	"cj-bridge/internal/catalog"
	"cj-bridge/internal/cj"
	"cj-bridge/internal/model"
)

// SearchCatalog searches the CJ catalog by keyword and category.
func (g *Gateway) SearchCatalog(ctx context.Context, q model.CatalogQuery) model.ListResult[model.Product] {
	p, size := page(q.Page, q.PageSize)
	query := url.Values{}
	pageQuery(query, "pageNum", p, size)
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		query.Set("productNameEn", kw)
	}
	if q.CategoryID != "" {
		query.Set("categoryId", q.CategoryID)
	}

	var data cj.ProductListPage
	if err := g.api.Get(ctx, cj.PathProductList, query, &data); err != nil {
		return failList[model.Product](g, "search_catalog", err)
	}

	products := make([]model.Product, 0, len(data.List))
	for _, row := range data.List {
		products = append(products, catalog.FromListRow(row, g.cfg.Pricing))
	}
	return model.OKList(products, data.Total.Int())
}

// SearchMyProducts searches the operator's saved products. CJ returns these
// in a different envelope ({content, totalRecords}); the result shape is the
// same as SearchCatalog.
func (g *Gateway) SearchMyProducts(ctx context.Context, q model.CatalogQuery) model.ListResult[model.Product] {
	p, size := page(q.Page, q.PageSize)
	query := url.Values{}
	pageQuery(query, "pageNum", p, size)
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		query.Set("keyword", kw)
	}

	var data cj.MyProductPage
	if err := g.api.Get(ctx, cj.PathMyProducts, query, &data); err != nil {
		return failList[model.Product](g, "search_my_products", err)
	}

	products := make([]model.Product, 0, len(data.Content))
	for _, row := range data.Content {
		products = append(products, catalog.FromMyProductRow(row, g.cfg.Pricing))
	}
	return model.OKList(products, data.TotalRecords.Int())
}

// GetProduct fetches one product with its variants.
func (g *Gateway) GetProduct(ctx context.Context, productID string) model.Result[model.Product] {
	if productID == "" {
		return model.Fail[model.Product](model.NewValidationError("product_id", "required"))
	}

	var data cj.ProductDetail
	if err := g.api.Get(ctx, cj.PathProduct, url.Values{"pid": {productID}}, &data); err != nil {
		return fail[model.Product](g, "get_product", err)
	}
	if data.PID == "" {
		return model.Fail[model.Product](model.NewNotFoundError("product " + productID))
	}
	return model.OK(catalog.FromDetail(data, g.cfg.Pricing))
}

// GetVariants fetches the variants of a product.
func (g *Gateway) GetVariants(ctx context.Context, productID string) model.Result[[]model.Variant] {
	if productID == "" {
		return model.Fail[[]model.Variant](model.NewValidationError("product_id", "required"))
	}

	var data []cj.ProductVariant
	if err := g.api.Get(ctx, cj.PathVariants, url.Values{"pid": {productID}}, &data); err != nil {
		return fail[[]model.Variant](g, "get_variants", err)
	}
	return model.OK(catalog.BuildVariants(productID, data))
}

// Categories returns the flattened leaf categories.
func (g *Gateway) Categories(ctx context.Context) model.Result[[]model.Category] {
	var data []cj.CategoryFirst
	if err := g.api.Get(ctx, cj.PathCategories, nil, &data); err != nil {
		return fail[[]model.Category](g, "categories", err)
	}
	return model.OK(catalog.FlattenCategories(data))
}
