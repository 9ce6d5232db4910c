package domain

// Vehicle represents a registered vehicle and its owner.
type Vehicle struct {
	ID                 string
	UserID             string
	Brand              string
	Model              string
	RegistrationNumber string
}
