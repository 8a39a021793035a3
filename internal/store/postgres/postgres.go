// Package postgres implements the store interfaces over gorm. Record
// types here are private: callers exchange store.* models only.
package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"barhub/internal/policy"
	"barhub/internal/store"
)

// Open connects to dsn and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&principalRecord{}, &productRecord{}, &orderRecord{}, &orderItemRecord{}); err != nil {
		return nil, err
	}
	return db, nil
}

type principalRecord struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (principalRecord) TableName() string { return "principals" }

type productRecord struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Price     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (productRecord) TableName() string { return "products" }

type orderRecord struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"index;not null"`
	Items     []orderItemRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OrderID   string `gorm:"index;not null"`
	ProductID string `gorm:"not null"`
	Quantity  int    `gorm:"not null"`
}

func (orderItemRecord) TableName() string { return "order_items" }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicateEmail
	default:
		return err
	}
}

// PrincipalStore is a gorm-backed store.PrincipalStore.
type PrincipalStore struct {
	db *gorm.DB
}

// NewPrincipalStore wraps db.
func NewPrincipalStore(db *gorm.DB) *PrincipalStore {
	return &PrincipalStore{db: db}
}

var _ store.PrincipalStore = (*PrincipalStore)(nil)

func (s *PrincipalStore) FindByEmail(ctx context.Context, email string) (*store.Principal, error) {
	var rec principalRecord
	if err := s.db.WithContext(ctx).Where("lower(email) = lower(?)", email).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return principalFromRecord(rec), nil
}

func (s *PrincipalStore) FindByID(ctx context.Context, id string) (*store.Principal, error) {
	var rec principalRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return principalFromRecord(rec), nil
}

func (s *PrincipalStore) List(ctx context.Context) ([]store.Principal, error) {
	var recs []principalRecord
	if err := s.db.WithContext(ctx).Order("created_at").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}

	out := make([]store.Principal, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *principalFromRecord(rec))
	}
	return out, nil
}

func (s *PrincipalStore) Create(ctx context.Context, p *store.Principal) error {
	rec := principalToRecord(p)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err)
	}
	p.CreatedAt = rec.CreatedAt
	p.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *PrincipalStore) Update(ctx context.Context, p *store.Principal) error {
	rec := principalToRecord(p)
	res := s.db.WithContext(ctx).Model(&principalRecord{ID: p.ID}).Updates(map[string]interface{}{
		"email":         rec.Email,
		"password_hash": rec.PasswordHash,
		"role":          rec.Role,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PrincipalStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&principalRecord{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func principalFromRecord(rec principalRecord) *store.Principal {
	return &store.Principal{
		ID:           rec.ID,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Role:         policy.Role(rec.Role),
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

func principalToRecord(p *store.Principal) principalRecord {
	return principalRecord{
		ID:           p.ID,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         string(p.Role),
	}
}

// ProductStore is a gorm-backed store.ProductStore.
type ProductStore struct {
	db *gorm.DB
}

// NewProductStore wraps db.
func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

var _ store.ProductStore = (*ProductStore)(nil)

func (s *ProductStore) List(ctx context.Context) ([]store.Product, error) {
	var recs []productRecord
	if err := s.db.WithContext(ctx).Order("created_at").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}

	out := make([]store.Product, 0, len(recs))
	for _, rec := range recs {
		out = append(out, store.Product{
			ID: rec.ID, Name: rec.Name, Price: rec.Price,
			CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt,
		})
	}
	return out, nil
}

func (s *ProductStore) Get(ctx context.Context, id string) (*store.Product, error) {
	var rec productRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &store.Product{
		ID: rec.ID, Name: rec.Name, Price: rec.Price,
		CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (s *ProductStore) Create(ctx context.Context, p *store.Product) error {
	rec := productRecord{ID: p.ID, Name: p.Name, Price: p.Price}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err)
	}
	p.CreatedAt = rec.CreatedAt
	p.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *ProductStore) Update(ctx context.Context, p *store.Product) error {
	res := s.db.WithContext(ctx).Model(&productRecord{ID: p.ID}).Updates(map[string]interface{}{
		"name":  p.Name,
		"price": p.Price,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&productRecord{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// OrderStore is a gorm-backed store.OrderStore.
type OrderStore struct {
	db *gorm.DB
}

// NewOrderStore wraps db.
func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

var _ store.OrderStore = (*OrderStore)(nil)

func (s *OrderStore) ListAll(ctx context.Context) ([]store.Order, error) {
	var recs []orderRecord
	if err := s.db.WithContext(ctx).Preload("Items").Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	return ordersFromRecords(recs), nil
}

func (s *OrderStore) ListByOwner(ctx context.Context, ownerID string) ([]store.Order, error) {
	var recs []orderRecord
	if err := s.db.WithContext(ctx).Preload("Items").Where("owner_id = ?", ownerID).Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	return ordersFromRecords(recs), nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (*store.Order, error) {
	var rec orderRecord
	if err := s.db.WithContext(ctx).Preload("Items").First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	o := orderFromRecord(rec)
	return &o, nil
}

func (s *OrderStore) Create(ctx context.Context, o *store.Order) error {
	rec := orderToRecord(o)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return translate(err)
	}
	o.CreatedAt = rec.CreatedAt
	o.UpdatedAt = rec.UpdatedAt
	return nil
}

// Update replaces the order's item lines in one transaction, matching
// the delete-then-recreate semantics the API promises.
func (s *OrderStore) Update(ctx context.Context, o *store.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&orderRecord{ID: o.ID}).Update("updated_at", time.Now())
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}

		if err := tx.Delete(&orderItemRecord{}, "order_id = ?", o.ID).Error; err != nil {
			return translate(err)
		}

		items := make([]orderItemRecord, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, orderItemRecord{OrderID: o.ID, ProductID: it.ProductID, Quantity: it.Quantity})
		}
		if len(items) == 0 {
			return nil
		}
		return translate(tx.Create(&items).Error)
	})
}

func (s *OrderStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Select("Items").Delete(&orderRecord{ID: id})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func ordersFromRecords(recs []orderRecord) []store.Order {
	out := make([]store.Order, 0, len(recs))
	for _, rec := range recs {
		out = append(out, orderFromRecord(rec))
	}
	return out
}

func orderFromRecord(rec orderRecord) store.Order {
	items := make([]store.OrderItem, 0, len(rec.Items))
	for _, it := range rec.Items {
		items = append(items, store.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return store.Order{
		ID:        rec.ID,
		OwnerID:   rec.OwnerID,
		Items:     items,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func orderToRecord(o *store.Order) orderRecord {
	items := make([]orderItemRecord, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemRecord{OrderID: o.ID, ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return orderRecord{ID: o.ID, OwnerID: o.OwnerID, Items: items}
}
