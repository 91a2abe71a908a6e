package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config represents the global configuration for the deployment
// This is a singleton model (only one row should exist)
type Config struct {
	BaseModel
	// Authentication configuration
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first startup (64 hex chars)

	// OTP housekeeping (cron expression, empty = purge every hour)
	OTPPurgeSchedule string     `json:"otp_purge_schedule"`
	LastPurgedAt     *time.Time `json:"last_purged_at"`
	NextPurgeAt      *time.Time `json:"next_purge_at"` // Calculated from cron schedule
}

// Role names. Role rows are seeded at migration time so that
// GET /api/roles/:id has something to resolve against.
const (
	RoleGuest   = "GUEST"
	RoleUser    = "USER"
	RoleStaff   = "STAFF"
	RoleManager = "MANAGER"
	RoleAdmin   = "ADMIN"
)

// Role represents an account role row
type Role struct {
	BaseModel
	Name        string `json:"name" gorm:"unique;not null"`
	Description string `json:"description"`
}

// IsStaffTier reports whether the role grants access to the staff route subtree
func IsStaffTier(roleName string) bool {
	switch roleName {
	case RoleStaff, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User represents a customer or staff account
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name"`
	RoleID       string    `json:"role_id" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Role Role `json:"role,omitzero" gorm:"foreignKey:RoleID"`
}

// Item represents a catalog product
type Item struct {
	BaseModel
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	PriceCents  int64  `json:"price_cents" gorm:"not null"`
	Currency    string `json:"currency" gorm:"type:varchar(3);not null;default:USD"`
	SkinType    string `json:"skin_type"` // dry, oily, combination, sensitive, normal
	ImageURL    string `json:"image_url"`
	InStock     bool   `json:"in_stock" gorm:"not null;default:true"`
}

// Order statuses. Transition validation lives in the orders service.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order represents a placed cart
type Order struct {
	BaseModel
	UserID     string    `json:"user_id" gorm:"not null"`
	Status     string    `json:"status" gorm:"not null;default:pending"`
	TotalCents int64     `json:"total_cents" gorm:"not null"`
	Currency   string    `json:"currency" gorm:"type:varchar(3);not null;default:USD"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	User  *User       `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem represents one line of an order with the price captured at
// purchase time (catalog prices may change afterwards)
type OrderItem struct {
	BaseModel
	OrderID        string `json:"order_id" gorm:"not null"`
	ItemID         string `json:"item_id" gorm:"not null"`
	Quantity       int    `json:"quantity" gorm:"not null"`
	UnitPriceCents int64  `json:"unit_price_cents" gorm:"not null"`

	// Relationships
	Item Item `json:"item,omitzero" gorm:"foreignKey:ItemID"`
}

// OTP purposes
const (
	OTPPurposeRegister      = "register"
	OTPPurposeResetPassword = "reset_password"
)

// EmailVerification represents a pending or completed OTP challenge for an
// email address. The code itself is stored hashed.
type EmailVerification struct {
	BaseModel
	Email     string     `json:"email" gorm:"not null;index"`
	CodeHash  string     `json:"-" gorm:"type:varchar(64);not null"`
	Purpose   string     `json:"purpose" gorm:"not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	Verified  bool       `json:"verified" gorm:"not null;default:false"`
	UsedAt    *time.Time `json:"used_at"`
}

// AutoMigrate runs database migrations for all models and seeds the role rows
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&User{}, &Config{}, &Role{}, &Item{}, &Order{}, &OrderItem{}, &EmailVerification{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return err
	}

	return seedRoles(db)
}

// seedRoles ensures the five well-known role rows exist
func seedRoles(db *gorm.DB) error {
	seeds := []Role{
		{Name: RoleGuest, Description: "Unauthenticated visitor"},
		{Name: RoleUser, Description: "Registered customer"},
		{Name: RoleStaff, Description: "Support staff"},
		{Name: RoleManager, Description: "Store manager"},
		{Name: RoleAdmin, Description: "Administrator"},
	}

	for _, seed := range seeds {
		var existing Role
		err := db.Where("name = ?", seed.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		role := seed
		if err := db.Create(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

// RoleByName resolves a role row by its name
func RoleByName(db *gorm.DB, name string) (*Role, error) {
	var role Role
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id string, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
