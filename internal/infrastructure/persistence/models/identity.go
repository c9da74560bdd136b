package models

import (
	"github.com/propledger/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Username     string        `gorm:"type:varchar(150);not null;uniqueIndex"`
	Email        string        `gorm:"type:varchar(254)"`
	FirstName    string        `gorm:"type:varchar(150)"`
	LastName     string        `gorm:"type:varchar(150)"`
	Phone        string        `gorm:"type:varchar(20)"`
	Role         identity.Role `gorm:"type:varchar(20);not null;index"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	IsActive     bool          `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.aggregate(),
		Username:          m.Username,
		Email:             m.Email,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Phone:             m.Phone,
		Role:              m.Role,
		PasswordHash:      m.PasswordHash,
		IsActive:          m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.setAggregate(u.BaseAggregateRoot)
	m.Username = u.Username
	m.Email = u.Email
	m.FirstName = u.FirstName
	m.LastName = u.LastName
	m.Phone = u.Phone
	m.Role = u.Role
	m.PasswordHash = u.PasswordHash
	m.IsActive = u.IsActive
}

// UserModelFromDomain creates a new persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
