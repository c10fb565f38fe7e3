package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// UsernamePattern определяет допустимый формат username
// Только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 3
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 32
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 8
	// MaxPasswordBytes bcrypt игнорирует все, что дальше 72 байт
	MaxPasswordBytes = 72
	// MaxEmailLen максимальная длина email
	MaxEmailLen = 254
	// MaxTitleLen максимальная длина названия книги и имени автора
	MaxTitleLen = 200
	// MaxContentLen максимальная длина текста поста или комментария
	MaxContentLen = 5000
	// MaxDisplayNameLen максимальная длина отображаемого имени
	MaxDisplayNameLen = 64
)

// ValidateUsername проверяет, что username соответствует требованиям
// Формат: только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
// Длина: 3-32 символа
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// NormalizeEmail приводит email к каноническому виду для хранения и поиска
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail проверяет формат email (ожидается уже нормализованный адрес)
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email is not a valid address")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
	}

	return nil
}

// ValidateDisplayName проверяет отображаемое имя (пустое допускается)
func ValidateDisplayName(name string) error {
	if utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return fmt.Errorf("display name must not exceed %d characters", MaxDisplayNameLen)
	}
	return nil
}

// ValidateBook проверяет обязательные поля поста: название и автора книги
func ValidateBook(title, author string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return fmt.Errorf("title must not exceed %d characters", MaxTitleLen)
	}
	if strings.TrimSpace(author) == "" {
		return fmt.Errorf("author cannot be empty")
	}
	if utf8.RuneCountInString(author) > MaxTitleLen {
		return fmt.Errorf("author must not exceed %d characters", MaxTitleLen)
	}
	return nil
}

// ValidateProgress проверяет прогресс чтения в процентах
func ValidateProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return fmt.Errorf("progress must be between 0 and 100")
	}
	return nil
}

// ValidateContent проверяет текст поста или комментария.
// allowEmpty разрешает пустой текст (у поста он опционален).
func ValidateContent(content string, allowEmpty bool) error {
	if !allowEmpty && strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return fmt.Errorf("content must not exceed %d characters", MaxContentLen)
	}
	return nil
}
