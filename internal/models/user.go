package models

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	// DemoUsername is the account provisioned with every fresh credential file.
	DemoUsername = "demo"
)

// User is one record in the credential file. The username is the map key.
type User struct {
	Username string `json:"username" yaml:"-"`
	Name     string `json:"name"     yaml:"name"`
	Email    string `json:"email"    yaml:"email"`
	Password string `json:"-"        yaml:"password"` // bcrypt hash, never serialized to clients
	Role     string `json:"role"     yaml:"role,omitempty"`
}

// CredentialFile mirrors the YAML document on disk.
type CredentialFile struct {
	Credentials struct {
		Usernames map[string]*User `yaml:"usernames"`
	} `yaml:"credentials"`
	Cookie struct {
		ExpiryDays int    `yaml:"expiry_days"`
		Key        string `yaml:"key"`
		Name       string `yaml:"name"`
	} `yaml:"cookie"`
	Preauthorized struct {
		Emails []string `yaml:"emails"`
	} `yaml:"preauthorized"`
}

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,max=50"`
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SetRoleRequest is the JSON body for PUT /api/admin/users/{username}/role.
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user"`
}
