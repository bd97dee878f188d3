package models

// User представляет покупателя. Учетные данные здесь не хранятся:
// проверка сессии полностью делегирована JWT-middleware
type User struct {
	ID       int64
	Email    string
	IsActive bool
}
