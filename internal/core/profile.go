package core

type (
	// UserProfile is keyed by the identity subject.
	UserProfile struct {
		UserID      string  `json:"userId" dynamodbav:"userId"`
		Email       string  `json:"email" dynamodbav:"email"`
		FirstName   *string `json:"firstName,omitempty" dynamodbav:"firstName,omitempty"`
		LastName    *string `json:"lastName,omitempty" dynamodbav:"lastName,omitempty"`
		DateOfBirth *string `json:"dateOfBirth,omitempty" dynamodbav:"dateOfBirth,omitempty"`
		Address     *string `json:"address,omitempty" dynamodbav:"address,omitempty"`
		Phone       *string `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
		CreatedAt   string  `json:"createdAt" dynamodbav:"createdAt"`
		UpdatedAt   string  `json:"updatedAt" dynamodbav:"updatedAt"`
	}

	UpdateProfileInput struct {
		UserID      string  `json:"userId" validate:"required"`
		FirstName   *string `json:"firstName,omitempty"`
		LastName    *string `json:"lastName,omitempty"`
		DateOfBirth *string `json:"dateOfBirth,omitempty"`
		Address     *string `json:"address,omitempty"`
		Phone       *string `json:"phone,omitempty"`
	}
)

func (in UpdateProfileInput) Validate() error {
	return validateStruct(in)
}

// DisplayName returns "First Last" when either part is set, else the email.
func (p UserProfile) DisplayName() string {
	var name string
	if p.FirstName != nil {
		name = *p.FirstName
	}
	if p.LastName != nil {
		if name != "" {
			name += " "
		}
		name += *p.LastName
	}
	if name == "" {
		return p.Email
	}
	return name
}
