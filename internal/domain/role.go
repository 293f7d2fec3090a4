package domain

// UserRole é um tipo string para representar o papel de quem chama a API.
type UserRole string

// Papéis com permissão de escrita no catálogo.
const (
	RoleAdmin  UserRole = "admin"
	RoleEditor UserRole = "editor"
	RoleViewer UserRole = "viewer"
)

// WriterRoles são os papéis aceitos nas rotas de mutação.
var WriterRoles = []UserRole{RoleAdmin, RoleEditor}
