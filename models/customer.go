package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/utils"
	"gorm.io/gorm"
)

type Customer struct {
	ID             int       `gorm:"primary_key" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	DocumentNumber string    `gorm:"size:30;index" json:"document_number"`
	Phone          string    `gorm:"size:20" json:"phone"`
	Email          string    `gorm:"size:100" json:"email"`
	Address        string    `gorm:"type:text" json:"address"`
	IsActive       *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name           string `json:"name" binding:"required" validate:"required,max=100"`
	DocumentNumber string `json:"document_number" validate:"max=30"`
	Phone          string `json:"phone"`
	Email          string `json:"email" validate:"omitempty,email,max=100"`
	Address        string `json:"address"`
}

// Don't delete if any debt instance references the customer.

func (input *NewCustomer) validate(ctx context.Context, db *gorm.DB) error {
	input.Name = strings.TrimSpace(input.Name)
	input.DocumentNumber = strings.TrimSpace(input.DocumentNumber)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Phone != "" {
		phone, err := utils.NormalizePhoneNumber(input.Phone, "")
		if err != nil {
			return err
		}
		input.Phone = phone
	}
	if input.DocumentNumber != "" {
		count, err := utils.ResourceCountWhere[Customer](ctx, db, "document_number = ?", input.DocumentNumber)
		if err != nil {
			return err
		}
		if count > 0 {
			return errors.New("duplicate document number")
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()
	if err := input.validate(ctx, db); err != nil {
		return nil, err
	}
	isActive := true
	customer := Customer{
		Name:           input.Name,
		DocumentNumber: input.DocumentNumber,
		Phone:          input.Phone,
		Email:          input.Email,
		Address:        input.Address,
		IsActive:       &isActive,
	}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return FindCustomer(ctx, config.GetDB(), id)
}

// FindCustomer loads a customer through db, which may be an open transaction.
func FindCustomer(ctx context.Context, db *gorm.DB, id int) (*Customer, error) {
	var customer Customer
	if err := db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "customer", Id: id}
		}
		return nil, err
	}
	return &customer, nil
}

func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	db := config.GetDB()
	result, err := FindCustomer(ctx, db, id)
	if err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[DebtInstance](ctx, db, "customer_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ReferencedError{Resource: "customer", Id: id, ReferencedBy: "debt instances", Count: count}
	}

	if err := db.WithContext(ctx).Delete(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func ToggleActiveCustomer(ctx context.Context, id int, isActive bool) (*Customer, error) {
	db := config.GetDB()
	result, err := FindCustomer(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(result).Update("is_active", isActive).Error; err != nil {
		return nil, err
	}
	result.IsActive = &isActive
	return result, nil
}
