package api

import "time"

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	User User `json:"user"`
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse представляет ответ с парой токенов
type LoginResponse struct {
	AccessToken      string    `json:"accessToken"`      // короткоживущий JWT
	RefreshToken     string    `json:"refreshToken"`     // долгоживущий JWT, хранится на сервере
	UserID           string    `json:"userId"`           // UUID пользователя
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`  // момент истечения access токена
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"` // момент истечения refresh токена
}

// RefreshResponse представляет ответ с новым access токеном
type RefreshResponse struct {
	AccessToken     string    `json:"accessToken"`
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
}

// MessageResponse представляет ответ с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки (текст HTTP статуса)
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
