package http

import (
	"github.com/shop-api-nosql/internal/infrastructure/dynamo"
	jwtinfra "github.com/shop-api-nosql/internal/infrastructure/jwt"
	s3infra "github.com/shop-api-nosql/internal/infrastructure/s3"
	"github.com/shop-api-nosql/internal/infrastructure/smtp"
	"github.com/shop-api-nosql/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	DriverRepo       *dynamo.DriverRepo
	SessionRepo      *dynamo.SessionRepo
	VerificationRepo *dynamo.VerificationRepo
	ProductRepo      *dynamo.ProductRepo
	OrderRepo        *dynamo.OrderRepo
	SaleRepo         *dynamo.SaleRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}
