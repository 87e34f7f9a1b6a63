// Package storefront serves the public side of a tenant: its catalog by
// slug and the WhatsApp contact-to-purchase flow.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lalith-99/storefront/internal/models"
	"github.com/lalith-99/storefront/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrStoreNotFound  = errors.New("store not found")
	ErrEmptyOrder     = errors.New("order has no items")
	ErrUnknownProduct = errors.New("product is not available")
	ErrBadQuantity    = errors.New("quantity must be between 1 and 999")
	ErrTooManyLines   = errors.New("order has more than 50 lines")
)

// Per-order limits on the public order endpoint.
const (
	MaxOrderLines   = 50
	MaxLineQuantity = 999
)

// AllCategory is the id of the catch-all category listed first.
const AllCategory = "all"

type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Storefront is everything the public page of one tenant renders.
type Storefront struct {
	Tenant     models.Tenant    `json:"tenant"`
	Products   []models.Product `json:"products"`
	Categories []Category       `json:"categories"`
	ContactURL string           `json:"contact_url"`

	// InquiryURLs maps product id to its "is this available?" chat link.
	InquiryURLs map[string]string `json:"inquiry_urls"`
}

type OrderLine struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// Order is a recorded lead and the link that opens the shop's chat with
// the order summary prefilled.
type Order struct {
	Lead models.Lead `json:"lead"`
	Link string      `json:"whatsapp_url"`
}

type Catalog struct {
	tenants  repository.TenantRepository
	products repository.ProductRepository
	leads    repository.LeadRepository
	baseURL  string
	logger   *zap.Logger
}

func NewCatalog(
	tenants repository.TenantRepository,
	products repository.ProductRepository,
	leads repository.LeadRepository,
	whatsAppBaseURL string,
	logger *zap.Logger,
) *Catalog {
	if whatsAppBaseURL == "" {
		whatsAppBaseURL = DefaultWhatsAppBaseURL
	}
	return &Catalog{
		tenants:  tenants,
		products: products,
		leads:    leads,
		baseURL:  whatsAppBaseURL,
		logger:   logger,
	}
}

// BySlug loads the storefront whose slug field matches. Inactive tenants
// are reported as not found.
func (c *Catalog) BySlug(ctx context.Context, slug string) (*Storefront, error) {
	tenant, err := c.tenantBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	products, err := c.products.ListByTenant(ctx, tenant.ID, true)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	inquiries := make(map[string]string, len(products))
	for _, p := range products {
		inquiries[p.ID] = c.InquiryLink(*tenant, p)
	}

	return &Storefront{
		Tenant:      *tenant,
		Products:    products,
		Categories:  Categories(products),
		ContactURL:  WhatsAppLink(c.baseURL, tenant.WhatsAppPhone, ""),
		InquiryURLs: inquiries,
	}, nil
}

func (c *Catalog) tenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrStoreNotFound
	}
	tenant, err := c.tenants.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get tenant by slug: %w", err)
	}
	if tenant == nil || !tenant.Active {
		return nil, ErrStoreNotFound
	}
	return tenant, nil
}

// Categories derives the category rail from products: "all" first, then
// each distinct non-empty category in product order.
func Categories(products []models.Product) []Category {
	out := []Category{{ID: AllCategory, Label: "All"}}
	seen := make(map[string]bool)
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, Category{ID: p.Category, Label: categoryLabel(p.Category)})
	}
	return out
}

// InquiryLink returns the chat link asking the shop about one product.
func (c *Catalog) InquiryLink(tenant models.Tenant, p models.Product) string {
	return WhatsAppLink(c.baseURL, tenant.WhatsAppPhone, InquiryMessage(tenant.Name, p))
}

// StartOrder prices lines against the tenant's active products, records a
// new lead and returns it with the prefilled chat link.
func (c *Catalog) StartOrder(ctx context.Context, slug string, lines []OrderLine, customerName string) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	if len(lines) > MaxOrderLines {
		return nil, ErrTooManyLines
	}
	for _, line := range lines {
		if line.Quantity <= 0 || line.Quantity > MaxLineQuantity {
			return nil, ErrBadQuantity
		}
	}
	tenant, err := c.tenantBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	items := make([]models.LeadItem, 0, len(lines))
	var total float64
	for _, line := range lines {
		p, err := c.products.GetByID(ctx, tenant.ID, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if p == nil || !p.Active {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, line.ProductID)
		}
		items = append(items, models.LeadItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			Price:     p.Price,
		})
		total += p.Price * float64(line.Quantity)
	}

	customerName = strings.TrimSpace(customerName)
	lead := &models.Lead{
		TenantID:     tenant.ID,
		CustomerName: customerName,
		Total:        total,
		Status:       models.LeadStatusNew,
		Items:        items,
	}
	if err := c.leads.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}

	c.logger.Info("order started",
		zap.String("tenant_id", tenant.ID),
		zap.Int64("lead_id", lead.ID),
		zap.Int("items", len(items)),
	)

	return &Order{
		Lead: *lead,
		Link: WhatsAppLink(c.baseURL, tenant.WhatsAppPhone, OrderMessage(tenant.Name, customerName, items, total)),
	}, nil
}
