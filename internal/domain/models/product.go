package models

import "github.com/shopspring/decimal"

// Category представляет категорию каталога
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product представляет товар каталога.
// Цена авторитетна на стороне БД и никогда не берется из клиентского запроса
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Sold         int             `json:"sold"`
	IsActive     bool            `json:"is_active"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"` // Имя категории; заполняется через JOIN с таблицей categories
}
