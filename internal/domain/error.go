package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int    `json:"code" example:"409"`
	Category string `json:"category" example:"HAS_CHILDREN"`
	Message  string `json:"message" example:"Categoria possui filhas: a categoria 'eletronicos' possui 2 filhas."`
}
