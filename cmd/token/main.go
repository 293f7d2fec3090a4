// Comando token assina um JWT para operadores do catálogo.
//
//	go run ./cmd/token -sub ops@example.com -role editor
package main

import (
	"flag"
	"fmt"
	"log"
	"slices"

	"github.com/joho/godotenv"

	"gocatalog/config"
	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: arquivo .env não encontrado. Usando apenas variáveis do ambiente: %v", err)
	}

	var subject, role string
	flag.StringVar(&subject, "sub", "", "identificador de quem usará o token")
	flag.StringVar(&role, "role", string(domain.RoleEditor), "papel: admin, editor ou viewer")
	flag.Parse()

	if subject == "" {
		log.Fatal("token: -sub é obrigatório")
	}
	known := []domain.UserRole{domain.RoleAdmin, domain.RoleEditor, domain.RoleViewer}
	if !slices.Contains(known, domain.UserRole(role)) {
		log.Fatalf("token: papel desconhecido %q", role)
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		log.Fatalf("token: configuração inválida: %v", err)
	}

	signed, err := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry).GenerateToken(subject, role)
	if err != nil {
		log.Fatalf("token: %v", err)
	}
	fmt.Println(signed)
}
