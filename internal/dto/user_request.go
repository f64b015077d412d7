package dto

import "github.com/alimikegami/quicart/internal/domain"

type SignUpRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ProfileUpdateRequest struct {
	Name        *string         `json:"name"`
	PhoneNumber *string         `json:"phoneNumber"`
	Address     *domain.Address `json:"address"`
}

type ProfilePhotoRequest struct {
	URL string `json:"url"`
}
