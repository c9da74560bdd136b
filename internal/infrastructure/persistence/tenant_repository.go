package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/propledger/backend/internal/domain/tenancy"
	"github.com/propledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTenantRepository implements TenantRepository using GORM.
// Tenants are loaded with their unit so rent can be resolved.
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Tenant, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByUserID finds the tenant record of a user
func (r *GormTenantRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*tenancy.Tenant, error) {
	return r.first(ctx, "user_id = ?", userID)
}

func (r *GormTenantRepository) first(ctx context.Context, cond string, arg any) (*tenancy.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).Preload("Unit").Where(cond, arg).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds tenants by ID; unknown IDs are skipped
func (r *GormTenantRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]tenancy.Tenant, error) {
	if len(ids) == 0 {
		return []tenancy.Tenant{}, nil
	}
	return r.find(r.db.WithContext(ctx).Where("id IN ?", ids))
}

// FindActive lists every active tenant
func (r *GormTenantRepository) FindActive(ctx context.Context) ([]tenancy.Tenant, error) {
	return r.find(r.db.WithContext(ctx).Where("status = ?", tenancy.TenantStatusActive))
}

func (r *GormTenantRepository) find(query *gorm.DB) ([]tenancy.Tenant, error) {
	var rows []models.TenantModel
	if err := query.Preload("Unit").Order("created_at ASC").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	tenants := make([]tenancy.Tenant, len(rows))
	for i := range rows {
		tenants[i] = *rows[i].ToDomain()
	}
	return tenants, nil
}

// Save creates or updates a tenant without touching its unit
func (r *GormTenantRepository) Save(ctx context.Context, tenant *tenancy.Tenant) error {
	model := &models.TenantModel{}
	model.FromDomain(tenant)
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Save(model).Error)
}

// GormPropertyRepository implements PropertyRepository using GORM
type GormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a new GormPropertyRepository
func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

// FindByID finds a property by its ID
func (r *GormPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Property, error) {
	var model models.PropertyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a property
func (r *GormPropertyRepository) Save(ctx context.Context, property *tenancy.Property) error {
	model := &models.PropertyModel{}
	model.FromDomain(property)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// GormUnitRepository implements UnitRepository using GORM
type GormUnitRepository struct {
	db *gorm.DB
}

// NewGormUnitRepository creates a new GormUnitRepository
func NewGormUnitRepository(db *gorm.DB) *GormUnitRepository {
	return &GormUnitRepository{db: db}
}

// FindByID finds a unit by its ID
func (r *GormUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a unit
func (r *GormUnitRepository) Save(ctx context.Context, unit *tenancy.Unit) error {
	model := &models.UnitModel{}
	model.FromDomain(unit)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

var (
	_ tenancy.TenantRepository   = (*GormTenantRepository)(nil)
	_ tenancy.PropertyRepository = (*GormPropertyRepository)(nil)
	_ tenancy.UnitRepository     = (*GormUnitRepository)(nil)
)
