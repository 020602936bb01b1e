package dto

type RegisterRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	MotherLastName string `json:"motherLastName"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Phone          string `json:"phone"`
	SecretQuestion string `json:"secretQuestion"`
	SecretAnswer   string `json:"secretAnswer"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type SecretQuestionResponse struct {
	SecretQuestion string `json:"secretQuestion"`
}

type RecoverRequest struct {
	Email          string `json:"email"`
	SecretQuestion string `json:"secretQuestion"`
	SecretAnswer   string `json:"secretAnswer"`
}

// RecoverResponse carries the single-use token that reset-password-direct requires.
type RecoverResponse struct {
	Message       string `json:"message"`
	RecoveryToken string `json:"recoveryToken"`
}

type ResetRequest struct {
	Password string `json:"password"`
}

type DirectResetRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	RecoveryToken string `json:"recoveryToken"`
}
