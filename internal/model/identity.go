package model

import "time"

// Identity : проверенная личность запроса. Для сессии внешнего провайдера
// заполнен только UserUUID, остальной код не различает источники.
type Identity struct {
	UserUUID       string
	Email          string
	TokenJTI       string
	SessionID      string
	RefreshTokenID string
	ExpiresAt      time.Time
}
