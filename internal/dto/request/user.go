package request

// UpdateUserRequest lists the profile fields a user may change. Nil fields are left as is.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
}

func (r UpdateUserRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil && r.Address == nil && r.Password == nil
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=customer admin"`
}
